package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/apps/lapcounter"
	"lapcounterbot/pkg/apps/mainapp"
	"lapcounterbot/pkg/config"
	"lapcounterbot/pkg/events"
	"lapcounterbot/pkg/menus"
	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/notification"
	"lapcounterbot/pkg/pubsub"
	"lapcounterbot/pkg/race"
	"lapcounterbot/pkg/rfid"
	"lapcounterbot/pkg/storage"
	"lapcounterbot/pkg/timing"
	"lapcounterbot/pkg/webserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm, err := storage.NewManager(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer sm.Close()

	journal, err := events.NewJournal(cfg.JournalPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open journal")
	}
	defer journal.Close()

	r, err := loadRace(cfg, sm)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load race")
	}

	laps := pubsub.NewPubSub[model.LapEvent]()
	started := pubsub.NewPubSub[model.RaceStarted]()
	host := timing.NewManager(r, laps, started, timing.WithJournal(journal), timing.WithSnapshotter(sm))

	ticker := time.NewTicker(cfg.SnapshotInterval)
	exitChan := make(chan bool)
	syncDone := host.Sync(ticker, exitChan)

	web := webserver.NewManager(cfg.WebserverAddress, host, journal, laps, started)
	webDone := make(chan struct{})
	go func() {
		web.Serve(ctx)
		close(webDone)
	}()

	if cfg.RFIDAddress != "" {
		listener := rfid.NewListener(cfg.RFIDAddress, cfg.RFIDMinLapGap, host)
		go func() {
			if err := listener.Listen(ctx); err != nil {
				log.Err(err).Msg("rfid listener stopped")
			}
		}()
	}

	var bot *tgbotapi.BotAPI
	if cfg.TelegramToken != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start telegram bot")
		}
		bot.Debug = false

		raceMenu := menus.NewApplicationMenu(lapcounter.ButtonTiming, mainapp.AppName, mainapp.Menuer{})
		raceApp := lapcounter.NewRaceApp(bot, raceMenu, host, sm)
		mainApp := mainapp.NewMainApp(bot, sm, raceApp)

		nm := notification.NewManager(ctx, bot, sm, laps, started)
		go nm.Start(exitChan)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		go receiveUpdates(ctx, bot.GetUpdatesChan(u), mainApp)
		log.Info().Str("bot", bot.Self.UserName).Msg("start listening for updates")
	} else {
		log.Warn().Msg("TELEGRAM_TOKEN not set, bot and notifications disabled")
	}

	log.Info().Str("race", host.Name()).Msg("lap counter running. Press Ctrl-C to stop it")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// lock the main thread until we receive a signal
	<-sigs

	if bot != nil {
		bot.StopReceivingUpdates()
	}
	cancel()
	ticker.Stop()
	close(exitChan)
	<-syncDone
	<-webDone
	laps.Close()
	started.Close()
	log.Info().Msg("lap counter stopped")
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// loadRace restores the last snapshot of the configured race, or creates it
// from the categories file when there is none.
func loadRace(cfg config.Config, sm *storage.Manager) (*race.Race, error) {
	payload, err := sm.LoadRace(cfg.RaceName)
	if err == nil {
		var r race.Race
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, errors.Wrapf(err, "restoring race %q", cfg.RaceName)
		}
		log.Info().Str("race", r.Name()).Int("participants", len(r.Participants())).Msg("race restored from snapshot")
		return &r, nil
	}
	if errors.Cause(err) != storage.ErrNotFound {
		return nil, err
	}

	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		return nil, err
	}
	r, err := race.New(cfg.RaceName, categories)
	if err != nil {
		return nil, errors.Wrap(err, "creating race")
	}
	log.Info().Str("race", r.Name()).Int("categories", len(r.Categories())).Msg("new race created")
	return r, nil
}
