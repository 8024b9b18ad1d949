package storage

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DbName = "./lapcounter-bot.db"

var ErrNotFound = errors.New("not found")

type TelegramUser struct {
	ChatID int64
	Name   string
}

type Manager struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewManager opens (or creates) the sqlite database at path. An empty path
// uses DbName.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		path = DbName
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Err(err).Str("path", path).Msg("error opening database")
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	// sqlite serializes writers anyway and ":memory:" is per connection
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{buildCreateRacesTable(), buildCreateSubscribersTable()} {
		if _, err := db.Exec(stmt); err != nil {
			log.Err(err).Msg("error init database")
			db.Close()
			return nil, errors.Wrap(err, "initializing database")
		}
	}

	return &Manager{
		db:  db,
		now: time.Now,
	}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.Close()
}

// SaveRace stores the serialized race under its name, replacing any
// previous snapshot.
func (m *Manager) SaveRace(name string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, args := buildSaveRaceCommand(name, payload, m.now())
	if _, err := m.db.Exec(stmt, args...); err != nil {
		return errors.Wrapf(err, "saving race %q", name)
	}
	return nil
}

// LoadRace returns the last snapshot saved for name, or ErrNotFound.
func (m *Manager) LoadRace(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, args, read := buildSelectRaceCommand(name)
	rows, err := m.db.Query(stmt, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "loading race %q", name)
	}
	return read(rows)
}

func (m *Manager) Subscribe(user TelegramUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.subscribe(user)
}

func (m *Manager) Unsubscribe(chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.unsubscribe(chatID)
}

// ToggleSubscription subscribes user when it was not subscribed and
// unsubscribes it otherwise. It returns whether the user ends up subscribed.
func (m *Manager) ToggleSubscription(user TelegramUser) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users, err := m.listSubscribers()
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.ChatID == user.ChatID {
			return false, m.unsubscribe(user.ChatID)
		}
	}
	return true, m.subscribe(user)
}

func (m *Manager) IsSubscribed(chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users, err := m.listSubscribers()
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.ChatID == chatID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) ListSubscribers() ([]TelegramUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.listSubscribers()
}

func (m *Manager) subscribe(user TelegramUser) error {
	stmt, args := buildInsertSubscriberCommand(user)
	if _, err := m.db.Exec(stmt, args...); err != nil {
		return errors.Wrapf(err, "subscribing chat %d", user.ChatID)
	}
	return nil
}

func (m *Manager) unsubscribe(chatID int64) error {
	stmt, args := buildDeleteSubscriberCommand(chatID)
	if _, err := m.db.Exec(stmt, args...); err != nil {
		return errors.Wrapf(err, "unsubscribing chat %d", chatID)
	}
	return nil
}

func (m *Manager) listSubscribers() ([]TelegramUser, error) {
	stmt, read := buildSelectSubscribersCommand()
	rows, err := m.db.Query(stmt)
	if err != nil {
		return []TelegramUser{}, errors.Wrap(err, "listing subscribers")
	}
	return read(rows)
}
