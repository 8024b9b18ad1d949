package webserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"lapcounterbot/pkg/events"
	"lapcounterbot/pkg/race"
	"lapcounterbot/pkg/render"
)

type errorResponse struct {
	Error string `json:"error"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Range struct {
		FirstID int `json:"firstId"`
		LastID  int `json:"lastId"`
	} `json:"range"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeRaceError maps core errors to status codes.
func writeRaceError(w http.ResponseWriter, err error) {
	if race.IsInvalidArgument(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Err(err).Msg("unexpected race error")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (m *Manager) getRace(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(m.host.Snapshot()))
}

func (m *Manager) startRace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.host.Start())
}

func (m *Manager) recordLap(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "id is invalid")
		return
	}
	event, ok := m.host.RecordLap(id)
	if !ok {
		writeError(w, http.StatusConflict, "race not started")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (m *Manager) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.host.Categories())
}

func (m *Manager) addCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	added, err := m.host.AddCategory(req.Name, req.Range.FirstID, req.Range.LastID)
	if err != nil {
		writeRaceError(w, err)
		return
	}
	if !added {
		writeError(w, http.StatusConflict, "category already exists")
		return
	}
	cat, _, _ := m.host.Category(req.Name)
	writeJSON(w, http.StatusCreated, cat)
}

func (m *Manager) getCategory(w http.ResponseWriter, r *http.Request) {
	cat, found, err := m.host.Category(mux.Vars(r)["name"])
	if err != nil {
		writeRaceError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (m *Manager) getRanking(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.host.Standings(r.URL.Query().Get("category")))
}

func (m *Manager) getRankingTable(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	title := m.host.Name()
	if category != "" {
		title += " - " + category
	}
	start, started := m.host.StartDate()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(render.RankingTable(title, m.host.Ranking(category), start, started)))
}

func (m *Manager) getReplay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.host.InsertedParticipants())
}

func (m *Manager) listEvents(w http.ResponseWriter, r *http.Request) {
	if m.events == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}
	list, err := m.events.List(events.ForRace(m.host.Name()))
	if err != nil {
		log.Err(err).Msg("failed to list events")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
