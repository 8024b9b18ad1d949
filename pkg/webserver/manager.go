package webserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/pubsub"
	"lapcounterbot/pkg/race"
)

const DefaultAddress = ":8080"

// RaceHost is the serialized race the API works on.
type RaceHost interface {
	Name() string
	Snapshot() string
	Start() model.RaceStarted
	StartDate() (time.Time, bool)
	RecordLap(id int) (model.LapEvent, bool)
	AddCategory(name string, firstID, lastID int) (bool, error)
	Category(name string) (race.Category, bool, error)
	Categories() []race.Category
	Ranking(category string) []race.Participant
	InsertedParticipants() []race.Participant
	Standings(category string) model.LiveRankingData
}

// EventLister lists journaled laps.
type EventLister interface {
	List(filter func(event model.LapEvent) bool) ([]model.LapEvent, error)
}

type Manager struct {
	r       *mux.Router
	addr    string
	host    RaceHost
	events  EventLister
	laps    *pubsub.PubSub[model.LapEvent]
	started *pubsub.PubSub[model.RaceStarted]
}

func NewManager(addr string, host RaceHost, events EventLister, laps *pubsub.PubSub[model.LapEvent], started *pubsub.PubSub[model.RaceStarted]) *Manager {
	if addr == "" {
		addr = DefaultAddress
	}
	m := &Manager{
		r:       mux.NewRouter(),
		addr:    addr,
		host:    host,
		events:  events,
		laps:    laps,
		started: started,
	}

	m.r.Use(middleware.RequestID)
	m.r.Use(middleware.RealIP)
	m.r.Use(accessLog)
	m.r.Use(middleware.Recoverer)
	m.raceHandlers()
	log.Debug().Strs("routes", m.Routes()).Msg("webserver routes registered")
	return m
}

func (m *Manager) Handler() http.Handler {
	return m.r
}

func (m *Manager) raceHandlers() {
	sr := m.r.PathPrefix("/race").Subrouter()

	sr.HandleFunc("", m.getRace).Methods(http.MethodGet)
	sr.HandleFunc("/start", m.startRace).Methods(http.MethodPost)
	sr.HandleFunc("/laps/{id}", m.recordLap).Methods(http.MethodPost)
	sr.HandleFunc("/categories", m.listCategories).Methods(http.MethodGet)
	sr.HandleFunc("/categories", m.addCategory).Methods(http.MethodPost)
	sr.HandleFunc("/categories/{name}", m.getCategory).Methods(http.MethodGet)
	sr.HandleFunc("/ranking", m.getRanking).Methods(http.MethodGet)
	sr.HandleFunc("/ranking.txt", m.getRankingTable).Methods(http.MethodGet)
	sr.HandleFunc("/replay", m.getReplay).Methods(http.MethodGet)
	sr.HandleFunc("/events", m.listEvents).Methods(http.MethodGet)
	sr.HandleFunc("/live", m.liveRanking).Methods(http.MethodGet)
	sr.HandleFunc("/replay/live", m.liveReplay).Methods(http.MethodGet)
}

// Routes returns "METHOD path" for every registered route.
func (m *Manager) Routes() []string {
	routes := []string{}
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		routes = append(routes, strings.Join(methods, ",")+" "+pathTemplate)
		return nil
	})
	return routes
}

// Serve listens until ctx is done and then shuts the server down.
func (m *Manager) Serve(ctx context.Context) {
	srv := &http.Server{
		Addr:        m.addr,
		ReadTimeout: time.Second * 15,
		IdleTimeout: time.Second * 60,
		Handler:     m.r,
	}

	go func() {
		log.Info().Str("address", m.addr).Msg("webserver listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("webserver stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Err(err).Msg("webserver shutdown")
	}
	log.Info().Msg("webserver shutting down")
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(t)).
			Msg("http request")
	})
}
