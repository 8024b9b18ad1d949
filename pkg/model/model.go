package model

import (
	"fmt"
	"time"
)

// LapEvent is published every time a lap is accepted by the race.
type LapEvent struct {
	ID            string    `json:"id" msgpack:"id"`
	RaceName      string    `json:"raceName" msgpack:"race_name"`
	ParticipantID int       `json:"participantId" msgpack:"participant_id"`
	Lap           int       `json:"lap" msgpack:"lap"`
	At            time.Time `json:"at" msgpack:"at"`
	LeaderID      int       `json:"leaderId" msgpack:"leader_id"`
	LeaderLaps    int       `json:"leaderLaps" msgpack:"leader_laps"`
}

func (le LapEvent) String() string {
	return fmt.Sprintf("  ▸ Dorsal: %d\n  ▸ Vuelta: %d\n  ▸ Líder: %d (%d vueltas)", le.ParticipantID, le.Lap, le.LeaderID, le.LeaderLaps)
}

type RaceStarted struct {
	RaceName string    `json:"raceName"`
	At       time.Time `json:"at"`
}

func (rs RaceStarted) String() string {
	return fmt.Sprintf("  ▸ Carrera: %s\n  ▸ Salida: %s", rs.RaceName, rs.At.Format("15:04:05"))
}

type Standing struct {
	Position      int       `json:"position"`
	ParticipantID int       `json:"participantId"`
	Laps          int       `json:"laps"`
	LastLap       time.Time `json:"lastLap"`
}

// LiveRankingData is the payload pushed to live ranking clients.
type LiveRankingData struct {
	RaceName  string     `json:"raceName"`
	Category  string     `json:"category,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	Standings []Standing `json:"standings"`
}

const (
	MessageTypeRanking = "ranking"
	MessageTypeLap     = "lap"
	MessageTypeReplay  = "replay"
)

// Message is the envelope of every websocket frame.
type Message struct {
	MessageType string `json:"type"`
	Body        any    `json:"body,omitempty"`
}
