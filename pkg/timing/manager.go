package timing

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/pubsub"
	"lapcounterbot/pkg/race"
)

// Journal keeps an append-only record of accepted laps.
type Journal interface {
	Append(event model.LapEvent) (model.LapEvent, error)
}

// Snapshotter persists the serialized race.
type Snapshotter interface {
	SaveRace(name string, payload []byte) error
}

// Manager hosts a single race and serializes every call into it.
type Manager struct {
	// publishMu is taken before mu and held until the event is published,
	// so subscribers and the journal see events in recording order.
	publishMu sync.Mutex
	mu        sync.Mutex
	race      *race.Race
	laps      *pubsub.PubSub[model.LapEvent]
	started   *pubsub.PubSub[model.RaceStarted]
	journal   Journal
	saver     Snapshotter
	lastSaved string
}

type Option func(*Manager)

func WithJournal(j Journal) Option {
	return func(m *Manager) {
		m.journal = j
	}
}

func WithSnapshotter(s Snapshotter) Option {
	return func(m *Manager) {
		m.saver = s
	}
}

func NewManager(r *race.Race, laps *pubsub.PubSub[model.LapEvent], started *pubsub.PubSub[model.RaceStarted], opts ...Option) *Manager {
	m := &Manager{
		race:    r,
		laps:    laps,
		started: started,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.Name()
}

// Start starts, or restarts, the race and announces it.
func (m *Manager) Start() model.RaceStarted {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	m.race.Start()
	at, _ := m.race.StartDate()
	rs := model.RaceStarted{RaceName: m.race.Name(), At: at}
	m.mu.Unlock()

	log.Info().Str("race", rs.RaceName).Time("at", at).Msg("race started")
	m.started.Publish(pubsub.PubSubRaceStartedTopic, rs)
	return rs
}

func (m *Manager) StartDate() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.StartDate()
}

// RecordLap records a lap for id. It returns false when the race has not
// started yet.
func (m *Manager) RecordLap(id int) (model.LapEvent, bool) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	if !m.race.RecordLap(id) {
		m.mu.Unlock()
		return model.LapEvent{}, false
	}
	p := m.race.FindParticipant(id)
	leader := m.race.Ranking("")[0]
	event := model.LapEvent{
		RaceName:      m.race.Name(),
		ParticipantID: id,
		Lap:           p.Laps(),
		At:            p.LastLap(),
		LeaderID:      leader.ID,
		LeaderLaps:    leader.Laps(),
	}
	m.mu.Unlock()

	if m.journal != nil {
		journaled, err := m.journal.Append(event)
		if err != nil {
			log.Err(err).Int("participant", id).Msg("failed to journal lap")
		} else {
			event = journaled
		}
	}
	m.laps.Publish(pubsub.PubSubLapsTopic, event)
	return event, true
}

func (m *Manager) AddCategory(name string, firstID, lastID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.AddCategory(name, firstID, lastID)
}

func (m *Manager) Category(name string) (race.Category, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.CategoryForName(name)
}

func (m *Manager) Categories() []race.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.Categories()
}

func (m *Manager) Ranking(category string) []race.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.Ranking(category)
}

func (m *Manager) InsertedParticipants() []race.Participant {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.InsertedParticipants()
}

// Standings returns the ranking of category ("" for everyone) with positions.
func (m *Manager) Standings(category string) model.LiveRankingData {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := model.LiveRankingData{
		RaceName:  m.race.Name(),
		Category:  category,
		Standings: []model.Standing{},
	}
	if at, ok := m.race.StartDate(); ok {
		data.StartedAt = &at
	}
	for idx, p := range m.race.Ranking(category) {
		data.Standings = append(data.Standings, model.Standing{
			Position:      idx + 1,
			ParticipantID: p.ID,
			Laps:          p.Laps(),
			LastLap:       p.LastLap(),
		})
	}
	return data
}

// Snapshot returns the serialized race.
func (m *Manager) Snapshot() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.race.String()
}

// Sync saves a snapshot on every tick when the race changed, and once more
// when exitChan fires. The returned channel is closed after that last save.
func (m *Manager) Sync(ticker *time.Ticker, exitChan <-chan bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-exitChan:
				m.doSync(time.Now())
				return
			case t := <-ticker.C:
				m.doSync(t)
			}
		}
	}()
	return done
}

func (m *Manager) doSync(t time.Time) {
	if m.saver == nil {
		return
	}
	payload := m.Snapshot()
	if payload == m.lastSaved {
		return
	}
	if err := m.saver.SaveRace(m.Name(), []byte(payload)); err != nil {
		log.Err(err).Msg("failed to save race snapshot")
		return
	}
	m.lastSaved = payload
	log.Debug().Time("at", t).Msg("race snapshot saved")
}
