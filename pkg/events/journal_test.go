package events

import (
	"testing"
	"time"

	"lapcounterbot/pkg/model"
)

func TestJournalAppendAndList(t *testing.T) {
	j, err := NewJournal("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()

	t0 := time.Date(2023, 6, 10, 9, 0, 0, 0, time.UTC)
	input := []model.LapEvent{
		{RaceName: "R1", ParticipantID: 2, Lap: 1, At: t0.Add(2 * time.Minute)},
		{RaceName: "R2", ParticipantID: 7, Lap: 1, At: t0.Add(3 * time.Minute)},
		{RaceName: "R1", ParticipantID: 1, Lap: 1, At: t0.Add(1 * time.Minute)},
	}
	ids := map[string]bool{}
	for _, e := range input {
		stored, err := j.Append(e)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if stored.ID == "" || ids[stored.ID] {
			t.Fatalf("expected a fresh id, got %q", stored.ID)
		}
		ids[stored.ID] = true
	}

	all, err := j.List(nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}

	r1, err := j.List(ForRace("R1"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(r1) != 2 || r1[0].ParticipantID != 1 || r1[1].ParticipantID != 2 {
		t.Fatalf("unexpected R1 events %+v", r1)
	}
	if !r1[0].At.Equal(t0.Add(time.Minute)) {
		t.Fatalf("unexpected lap time %v", r1[0].At)
	}
}
