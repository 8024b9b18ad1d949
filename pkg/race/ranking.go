package race

import (
	"sort"
	"time"
)

// CompareParticipants orders participants for a ranking. It returns a
// negative value when a ranks ahead of b: more laps first, then the earlier
// last lap. Equal records compare as 0.
func CompareParticipants(a, b Participant) int {
	if a.Laps() != b.Laps() {
		return b.Laps() - a.Laps()
	}
	al, bl := a.LastLap(), b.LastLap()
	switch {
	case al.Before(bl):
		return -1
	case al.After(bl):
		return 1
	}
	return 0
}

// SortParticipants stable-sorts ps in place, leader first.
func SortParticipants(ps []Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		return CompareParticipants(ps[i], ps[j]) < 0
	})
}

// Ranking returns the participants sorted leader first. An empty category
// ranks everyone, otherwise only the members of that category. The stored
// participant order is never changed.
func (r *Race) Ranking(category string) []Participant {
	var ps []Participant
	if category == "" {
		ps = r.Participants()
	} else {
		ps = r.ParticipantsForCategory(category)
	}
	SortParticipants(ps)
	return ps
}

// InsertedParticipants expands every lap into a single-lap record, ranks all
// of them and returns them reversed: the latest lap event comes first. It is
// empty before the race starts.
func (r *Race) InsertedParticipants() []Participant {
	if !r.IsStarted() {
		return []Participant{}
	}

	ps := []Participant{}
	for _, p := range r.participants {
		for _, lap := range p.LapTimes {
			ps = append(ps, Participant{ID: p.ID, LapTimes: []time.Time{lap}})
		}
	}
	SortParticipants(ps)

	for i, j := 0, len(ps)-1; i < j; i, j = i+1, j-1 {
		ps[i], ps[j] = ps[j], ps[i]
	}
	return ps
}
