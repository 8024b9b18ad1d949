package events

import (
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"

	"lapcounterbot/pkg/caster"
	"lapcounterbot/pkg/model"
)

const lapPrefix = "LAP/"

var lapCaster caster.ChannelCaster[model.LapEvent] = caster.MsgpackChannelCaster[model.LapEvent]{}

// Journal is an append-only badger log of accepted laps. Values are msgpack
// encoded and keyed by ksuid, so keys sort roughly by creation time.
type Journal struct {
	db *badger.DB
}

// NewJournal opens the badger directory at path. An empty path keeps the
// journal in memory.
func NewJournal(path string) (*Journal, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) buildKey(id string) []byte {
	return []byte(lapPrefix + id)
}

// Append stores event under a fresh id and returns it with the id set.
func (j *Journal) Append(event model.LapEvent) (model.LapEvent, error) {
	event.ID = ksuid.New().String()
	buf, err := lapCaster.To(event)
	if err != nil {
		return event, errors.Wrap(err, "failed to marshal lap event")
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(j.buildKey(event.ID), []byte(buf))
	})
	if err != nil {
		return event, errors.Wrapf(err, "failed to store lap event %s", event.ID)
	}
	return event, nil
}

// List returns every journaled lap accepted by filter (nil keeps all),
// ordered by lap time.
func (j *Journal) List(filter func(event model.LapEvent) bool) ([]model.LapEvent, error) {
	events := []model.LapEvent{}
	prefix := []byte(lapPrefix)

	err := j.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var e model.LapEvent
			if err := it.Item().Value(func(val []byte) error {
				var err error
				e, err = lapCaster.From(string(val))
				return err
			}); err != nil {
				return err
			}
			if filter != nil && !filter(e) {
				continue
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list lap events")
	}

	sort.SliceStable(events, func(i, k int) bool {
		return events[i].At.Before(events[k].At)
	})
	return events, nil
}

// ForRace is a List filter keeping the laps of one race.
func ForRace(name string) func(model.LapEvent) bool {
	return func(e model.LapEvent) bool {
		return e.RaceName == name
	}
}

// Close compacts and closes the journal.
func (j *Journal) Close() error {
	if !j.db.Opts().InMemory {
		log.Err(j.db.Flatten(4)).Msg("flatten on stop")
		log.Err(j.db.RunValueLogGC(0.5)).Msg("run value log gc")
	}
	return j.db.Close()
}
