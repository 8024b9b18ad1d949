package rfid

import (
	"testing"
	"time"
)

func TestDecodeCSV(t *testing.T) {
	reads, err := Decode([]byte("12,1686387600000,1\n 7 ,1686387601500, 2\n"), time.UTC)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reads) != 2 {
		t.Fatalf("expected 2 reads, got %d", len(reads))
	}
	want := time.Date(2023, 6, 10, 9, 0, 1, 500000000, time.UTC)
	if reads[1].TagID != "7" || reads[1].Antenna != 2 || !reads[1].At.Equal(want) {
		t.Fatalf("unexpected read %+v", reads[1])
	}
	id, err := reads[0].ParticipantID()
	if err != nil || id != 12 {
		t.Fatalf("expected id 12, got %d %v", id, err)
	}
}

func TestDecodeXML(t *testing.T) {
	payload := `<Tag><TagID>0 0 4 2</TagID><DiscoveryTime>2023/06/10 09:00:01.250</DiscoveryTime><Antenna>3</Antenna></Tag>`
	reads, err := Decode([]byte(payload), time.UTC)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reads) != 1 {
		t.Fatalf("expected 1 read, got %d", len(reads))
	}
	r := reads[0]
	if r.TagID != "0042" || r.Antenna != 3 {
		t.Fatalf("unexpected read %+v", r)
	}
	if !r.At.Equal(time.Date(2023, 6, 10, 9, 0, 1, 250000000, time.UTC)) {
		t.Fatalf("unexpected time %v", r.At)
	}
	if id, _ := r.ParticipantID(); id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"missing field", "12,1686387600000"},
		{"bad time", "12,yesterday,1"},
		{"bad antenna", "12,1686387600000,999"},
		{"bad xml time", "<Tag><TagID>1</TagID><DiscoveryTime>now</DiscoveryTime></Tag>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.payload), time.UTC); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParticipantIDRejectsNonNumericTags(t *testing.T) {
	if _, err := (Read{TagID: "E2801160"}).ParticipantID(); err == nil {
		t.Fatal("expected an error")
	}
}
