package helper

import (
	"fmt"
	"time"
)

// DurationToMinutes formats d as minutes:seconds.milliseconds. Minutes are
// not wrapped into hours.
func DurationToMinutes(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, ms%1000)
}

func DurationToHoursAndMinutes(d time.Duration) string {
	if d <= 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) - hours*60
	return fmt.Sprintf("%02dh %02dm", hours, minutes)
}

// Elapsed formats the race time of at, measured from start.
func Elapsed(start, at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return DurationToMinutes(at.Sub(start))
}

// LapsBehind formats the lap difference to the leader.
func LapsBehind(leaderLaps, laps int) string {
	switch diff := leaderLaps - laps; {
	case diff <= 0:
		return "-"
	case diff == 1:
		return "+1 vuelta"
	default:
		return fmt.Sprintf("+%d vueltas", diff)
	}
}
