package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"lapcounterbot/pkg/helper"
	"lapcounterbot/pkg/race"
)

const (
	headerPosition = "POS"
	headerID       = "DORSAL"
	headerLaps     = "VUELTAS"
	headerLastLap  = "ÚLTIMA"
	headerGap      = "DIF"
	headerTime     = "TIEMPO"
	headerClock    = "HORA"
)

// RankingTable renders an already ranked list of participants. Times are
// shown relative to start when the race has started.
func RankingTable(title string, ranking []race.Participant, start time.Time, started bool) string {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.AppendHeader(table.Row{headerPosition, headerID, headerLaps, headerLastLap, headerGap})

	leaderLaps := 0
	if len(ranking) > 0 {
		leaderLaps = ranking[0].Laps()
	}
	for idx, p := range ranking {
		t.AppendRow(table.Row{
			idx + 1,
			p.ID,
			p.Laps(),
			lapTime(start, started, p.LastLap()),
			helper.LapsBehind(leaderLaps, p.Laps()),
		})
	}
	if len(ranking) == 0 {
		t.AppendRow(table.Row{"-", "-", 0, "-", "-"})
	}
	t.Render()
	return b.String()
}

// ReplayTable renders the replay log, latest lap first.
func ReplayTable(title string, entries []race.Participant, start time.Time) string {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", headerID, headerTime, headerClock})

	for idx, e := range entries {
		at := e.LastLap()
		t.AppendRow(table.Row{
			len(entries) - idx,
			e.ID,
			helper.Elapsed(start, at),
			at.Format("15:04:05"),
		})
	}
	t.Render()
	return b.String()
}

// Categories renders the category list of a race.
func Categories(categories []race.Category) string {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"CATEGORÍA", "DORSALES"})
	for _, c := range categories {
		t.AppendRow(table.Row{c.Name, fmt.Sprintf("%d - %d", c.Range.FirstID, c.Range.LastID)})
	}
	t.Render()
	return b.String()
}

func lapTime(start time.Time, started bool, at time.Time) string {
	if !started {
		return "-"
	}
	return helper.Elapsed(start, at)
}
