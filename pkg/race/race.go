// Package race models a single race: categories by id range, a start time
// and the laps recorded for every participant. A Race is not safe for
// concurrent use; hosts must serialize calls.
package race

import "time"

type Participant struct {
	ID       int         `json:"id"`
	LapTimes []time.Time `json:"lapTime"`
}

// Laps returns the number of completed laps.
func (p Participant) Laps() int {
	return len(p.LapTimes)
}

// LastLap returns the most recent lap timestamp, or the zero time when the
// participant has no laps.
func (p Participant) LastLap() time.Time {
	if len(p.LapTimes) == 0 {
		return time.Time{}
	}
	return p.LapTimes[len(p.LapTimes)-1]
}

func (p Participant) clone() Participant {
	laps := make([]time.Time, len(p.LapTimes))
	copy(laps, p.LapTimes)
	return Participant{ID: p.ID, LapTimes: laps}
}

type Race struct {
	name         string
	categories   []Category
	start        *time.Time
	participants []*Participant
	clock        Clock
}

type Option func(*Race)

// WithClock sets the time source used by Start and RecordLap.
func WithClock(c Clock) Option {
	return func(r *Race) {
		r.clock = c
	}
}

// New creates a race. It fails with an InvalidArgumentError when name is
// empty or when a category candidate is malformed.
func New(name string, categories []CategoryInput, opts ...Option) (*Race, error) {
	if name == "" {
		return nil, invalidArgument("name is undefined")
	}

	res := CheckCategories(categories)
	if res.Failed {
		return nil, invalidArgument(res.Message)
	}

	cats := make([]Category, 0, len(categories))
	for _, c := range categories {
		cat, err := ValidateCategory(c)
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}

	r := &Race{
		name:         name,
		categories:   cats,
		participants: []*Participant{},
		clock:        SystemClock,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Race) Name() string {
	return r.name
}

// Categories returns a copy of the categories in insertion order.
func (r *Race) Categories() []Category {
	cats := make([]Category, len(r.categories))
	copy(cats, r.categories)
	return cats
}

// Participants returns a deep copy of the participants in insertion order.
func (r *Race) Participants() []Participant {
	ps := make([]Participant, len(r.participants))
	for i, p := range r.participants {
		ps[i] = p.clone()
	}
	return ps
}

// Start sets the start time to now. Calling it again resets the start time.
func (r *Race) Start() {
	now := r.clock.Now()
	r.start = &now
}

// StartDate returns the start time and whether the race has started.
func (r *Race) StartDate() (time.Time, bool) {
	if r.start == nil {
		return time.Time{}, false
	}
	return *r.start, true
}

func (r *Race) IsStarted() bool {
	return r.start != nil
}

// FindParticipant returns the participant with the given id or nil.
func (r *Race) FindParticipant(id int) *Participant {
	for _, p := range r.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RecordLap appends a lap for id, creating the participant on its first lap.
// It returns false, and changes nothing, when the race has not started.
func (r *Race) RecordLap(id int) bool {
	if !r.IsStarted() {
		return false
	}

	now := r.clock.Now()
	if p := r.FindParticipant(id); p != nil {
		p.LapTimes = append(p.LapTimes, now)
		return true
	}
	r.participants = append(r.participants, &Participant{ID: id, LapTimes: []time.Time{now}})
	return true
}

// AddCategory appends a category. Zero ids are rejected as invalid. A
// category whose name is already registered is left untouched and false is
// returned.
func (r *Race) AddCategory(name string, firstID, lastID int) (bool, error) {
	if name == "" {
		return false, invalidArgument("name is invalid")
	}
	if firstID == 0 {
		return false, invalidArgument("firstId is invalid")
	}
	if lastID == 0 {
		return false, invalidArgument("lastId is invalid")
	}

	for _, c := range r.categories {
		if c.Name == name {
			return false, nil
		}
	}

	r.categories = append(r.categories, Category{
		Name:  name,
		Range: Range{FirstID: firstID, LastID: lastID},
	})
	return true, nil
}

// CategoryForName returns the first category named name. The bool is false
// when no category matches.
func (r *Race) CategoryForName(name string) (Category, bool, error) {
	if name == "" {
		return Category{}, false, invalidArgument("catName is invalid")
	}
	for _, c := range r.categories {
		if c.Name == name {
			return c, true, nil
		}
	}
	return Category{}, false, nil
}

// ParticipantsForCategory returns copies of the participants whose id falls
// in the range of the named category. An unknown or empty name yields an
// empty slice.
func (r *Race) ParticipantsForCategory(name string) []Participant {
	ps := []Participant{}
	cat, found, err := r.CategoryForName(name)
	if err != nil || !found {
		return ps
	}
	for _, p := range r.participants {
		if cat.Range.Contains(p.ID) {
			ps = append(ps, p.clone())
		}
	}
	return ps
}
