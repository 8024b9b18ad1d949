package race

import (
	"encoding/json"
	"time"
)

// ISOFormat is the timestamp layout used in serialized races, millisecond
// precision in UTC.
const ISOFormat = "2006-01-02T15:04:05.000Z07:00"

type jsonParticipant struct {
	ID      int      `json:"id"`
	LapTime []string `json:"lapTime"`
}

type jsonCategory struct {
	Name  *string     `json:"name"`
	Range *RangeInput `json:"range"`
}

type jsonRace struct {
	Name           string            `json:"name"`
	Categories     []jsonCategory    `json:"categories"`
	StartTimestamp string            `json:"startTimestamp"`
	Participants   []jsonParticipant `json:"participants"`
}

// FormatTime renders t the way it appears in a serialized race.
func FormatTime(t time.Time) string {
	return t.UTC().Format(ISOFormat)
}

func (r *Race) MarshalJSON() ([]byte, error) {
	jr := jsonRace{
		Name:         r.name,
		Categories:   make([]jsonCategory, 0, len(r.categories)),
		Participants: make([]jsonParticipant, 0, len(r.participants)),
	}
	for _, c := range r.categories {
		in := NewCategoryInput(c.Name, c.Range.FirstID, c.Range.LastID)
		jr.Categories = append(jr.Categories, jsonCategory(in))
	}
	if r.start != nil {
		jr.StartTimestamp = FormatTime(*r.start)
	}
	for _, p := range r.participants {
		jr.Participants = append(jr.Participants, p.toJSON())
	}
	return json.Marshal(jr)
}

func (p Participant) toJSON() jsonParticipant {
	laps := make([]string, len(p.LapTimes))
	for i, lap := range p.LapTimes {
		laps[i] = FormatTime(lap)
	}
	return jsonParticipant{ID: p.ID, LapTime: laps}
}

// MarshalJSON encodes p with lap timestamps in ISOFormat.
func (p Participant) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toJSON())
}

// UnmarshalJSON restores a race serialized by MarshalJSON. The clock is left
// untouched, or set to SystemClock on a zero Race.
func (r *Race) UnmarshalJSON(data []byte) error {
	var jr jsonRace
	if err := json.Unmarshal(data, &jr); err != nil {
		return err
	}

	inputs := make([]CategoryInput, len(jr.Categories))
	for i, c := range jr.Categories {
		inputs[i] = CategoryInput(c)
	}
	restored, err := New(jr.Name, inputs)
	if err != nil {
		return err
	}

	if jr.StartTimestamp != "" {
		start, err := time.Parse(ISOFormat, jr.StartTimestamp)
		if err != nil {
			return err
		}
		restored.start = &start
	}
	for _, jp := range jr.Participants {
		p := &Participant{ID: jp.ID, LapTimes: make([]time.Time, len(jp.LapTime))}
		for i, s := range jp.LapTime {
			lap, err := time.Parse(ISOFormat, s)
			if err != nil {
				return err
			}
			p.LapTimes[i] = lap
		}
		restored.participants = append(restored.participants, p)
	}

	if r.clock != nil {
		restored.clock = r.clock
	}
	*r = *restored
	return nil
}

// String returns the JSON form of the race.
func (r *Race) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(b)
}
