package webserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/caster"
	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/pubsub"
	"lapcounterbot/pkg/queues"
	"lapcounterbot/pkg/race"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var messageCaster caster.ChannelCaster[model.Message] = caster.JSONChannelCaster[model.Message]{}

func writeMessage(conn *websocket.Conn, messageType string, body any) error {
	payload, err := messageCaster.To(model.Message{MessageType: messageType, Body: body})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

// watchClose drains incoming frames and closes the returned channel once the
// client goes away.
func watchClose(conn *websocket.Conn) <-chan struct{} {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return closed
}

// liveRanking pushes the current ranking on connect and again after every
// lap or race start. The optional category query narrows the ranking.
func (m *Manager) liveRanking(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	laps := m.laps.Subscribe(pubsub.PubSubLapsTopic)
	defer m.laps.Unsubscribe(pubsub.PubSubLapsTopic, laps)
	started := m.started.Subscribe(pubsub.PubSubRaceStartedTopic)
	defer m.started.Unsubscribe(pubsub.PubSubRaceStartedTopic, started)
	closed := watchClose(conn)

	if err := writeMessage(conn, model.MessageTypeRanking, m.host.Standings(category)); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case event, ok := <-laps:
			if !ok {
				return
			}
			if err := writeMessage(conn, model.MessageTypeLap, event); err != nil {
				return
			}
			if err := writeMessage(conn, model.MessageTypeRanking, m.host.Standings(category)); err != nil {
				return
			}
		case _, ok := <-started:
			if !ok {
				return
			}
			if err := writeMessage(conn, model.MessageTypeRanking, m.host.Standings(category)); err != nil {
				return
			}
		}
	}
}

// liveReplay sends the replay log oldest lap first, one frame per lap, and
// closes the connection.
func (m *Manager) liveReplay(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	inserted := m.host.InsertedParticipants()
	q := queues.NewQueue[race.Participant]()
	for i := len(inserted) - 1; i >= 0; i-- {
		q.Push(inserted[i])
	}
	log.Debug().Int("entries", q.Len()).Msg("replaying race")
	for !q.IsEmpty() {
		if err := writeMessage(conn, model.MessageTypeReplay, q.Pop()); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
