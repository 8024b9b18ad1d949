package notification

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/telegram"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/pubsub"
	"lapcounterbot/pkg/storage"
)

const (
	subjectRaceStarted = "Carrera iniciada:"
	subjectNewLeader   = "Nuevo líder:"
)

type Lister interface {
	ListSubscribers() ([]storage.TelegramUser, error)
}

// Sender delivers a notification to the given telegram chats.
type Sender func(ctx context.Context, chatIDs []int64, subject, message string) error

type Manager struct {
	ctx     context.Context
	lister  Lister
	send    Sender
	laps    *pubsub.PubSub[model.LapEvent]
	started *pubsub.PubSub[model.RaceStarted]

	lapsChan    <-chan model.LapEvent
	startedChan <-chan model.RaceStarted

	hasLeader bool
	leaderID  int
}

func NewManager(ctx context.Context, bot *tgbotapi.BotAPI, lister Lister, laps *pubsub.PubSub[model.LapEvent], started *pubsub.PubSub[model.RaceStarted]) *Manager {
	return NewManagerWithSender(ctx, TelegramSender(bot), lister, laps, started)
}

// NewManagerWithSender subscribes right away so events published before
// Start runs are not lost.
func NewManagerWithSender(ctx context.Context, send Sender, lister Lister, laps *pubsub.PubSub[model.LapEvent], started *pubsub.PubSub[model.RaceStarted]) *Manager {
	m := &Manager{
		ctx:     ctx,
		lister:  lister,
		send:    send,
		laps:    laps,
		started: started,
	}
	if laps != nil {
		m.lapsChan = laps.Subscribe(pubsub.PubSubLapsTopic)
	}
	if started != nil {
		m.startedChan = started.Subscribe(pubsub.PubSubRaceStartedTopic)
	}
	return m
}

// TelegramSender sends through notify using an already authenticated bot.
func TelegramSender(bot *tgbotapi.BotAPI) Sender {
	return func(ctx context.Context, chatIDs []int64, subject, message string) error {
		tg := &telegram.Telegram{}
		tg.SetClient(bot)
		tg.AddReceivers(chatIDs...)

		return notify.NewWithServices(tg).Send(ctx, subject, message)
	}
}

// Start notifies subscribers of race starts and leader changes until
// exitChan fires.
func (m *Manager) Start(exitChan <-chan bool) {
	if m.laps != nil {
		defer m.laps.Unsubscribe(pubsub.PubSubLapsTopic, m.lapsChan)
	}
	if m.started != nil {
		defer m.started.Unsubscribe(pubsub.PubSubRaceStartedTopic, m.startedChan)
	}
	for {
		select {
		case <-exitChan:
			return
		case rs, ok := <-m.startedChan:
			if !ok {
				return
			}
			m.hasLeader = false
			log.Info().Str("race", rs.RaceName).Msg("race started, notifying subscribers")
			m.handleNotification(subjectRaceStarted, rs.String())
		case lap, ok := <-m.lapsChan:
			if !ok {
				return
			}
			if m.hasLeader && m.leaderID == lap.LeaderID {
				continue
			}
			m.hasLeader = true
			m.leaderID = lap.LeaderID
			log.Info().Int("leader", lap.LeaderID).Msg("new leader, notifying subscribers")
			m.handleNotification(subjectNewLeader, lap.String())
		}
	}
}

func (m *Manager) handleNotification(subject, message string) {
	receipients, err := m.lister.ListSubscribers()
	if err != nil {
		log.Err(err).Msg("error listing subscribers")
		return
	}
	if len(receipients) == 0 {
		return
	}

	chatIDs := make([]int64, 0, len(receipients))
	for _, r := range receipients {
		chatIDs = append(chatIDs, r.ChatID)
	}
	log.Debug().Int("receipients", len(chatIDs)).Str("subject", subject).Msg("sending notification")
	if err := m.send(m.ctx, chatIDs, subject, message); err != nil {
		log.Err(err).Msg("error notifying users")
	}
}
