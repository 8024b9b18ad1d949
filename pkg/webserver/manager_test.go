package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"lapcounterbot/pkg/events"
	"lapcounterbot/pkg/model"
	"lapcounterbot/pkg/pubsub"
	"lapcounterbot/pkg/race"
	"lapcounterbot/pkg/timing"
)

var t0 = time.Date(2023, 6, 10, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *timing.Manager) {
	t.Helper()
	next := t0
	clock := race.ClockFunc(func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	})
	r, err := race.New("R1", []race.CategoryInput{race.NewCategoryInput("Cat_1", 1, 10)}, race.WithClock(clock))
	if err != nil {
		t.Fatalf("new race: %v", err)
	}
	journal, err := events.NewJournal("")
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	laps := pubsub.NewPubSub[model.LapEvent]()
	started := pubsub.NewPubSub[model.RaceStarted]()
	host := timing.NewManager(r, laps, started, timing.WithJournal(journal))
	m := NewManager("", host, journal, laps, started)

	srv := httptest.NewServer(m.Handler())
	t.Cleanup(srv.Close)
	return srv, host
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStatusCodes(t *testing.T) {
	srv, _ := newTestServer(t)

	steps := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/race/laps/3", "", http.StatusConflict},
		{http.MethodPost, "/race/laps/abc", "", http.StatusBadRequest},
		{http.MethodPost, "/race/start", "", http.StatusOK},
		{http.MethodPost, "/race/laps/3", "", http.StatusCreated},
		{http.MethodPost, "/race/categories", `{"name":"Cat_2","range":{"firstId":11,"lastId":20}}`, http.StatusCreated},
		{http.MethodPost, "/race/categories", `{"name":"Cat_2","range":{"firstId":11,"lastId":20}}`, http.StatusConflict},
		{http.MethodPost, "/race/categories", `{"name":"Cat_3","range":{"lastId":20}}`, http.StatusBadRequest},
		{http.MethodPost, "/race/categories", `not json`, http.StatusBadRequest},
		{http.MethodGet, "/race/categories/Cat_2", "", http.StatusOK},
		{http.MethodGet, "/race/categories/nope", "", http.StatusNotFound},
		{http.MethodGet, "/race/ranking", "", http.StatusOK},
		{http.MethodGet, "/race/ranking.txt", "", http.StatusOK},
		{http.MethodGet, "/race/replay", "", http.StatusOK},
		{http.MethodGet, "/race/events", "", http.StatusOK},
		{http.MethodGet, "/race", "", http.StatusOK},
	}
	for _, s := range steps {
		resp := do(t, s.method, srv.URL+s.path, s.body)
		if resp.StatusCode != s.want {
			t.Fatalf("%s %s: expected %d, got %d", s.method, s.path, s.want, resp.StatusCode)
		}
	}
}

func TestInvalidCategoryMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodPost, srv.URL+"/race/categories", `{"name":"Cat_3","range":{"firstId":5}}`)

	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "lastId is invalid" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestRankingAndEvents(t *testing.T) {
	srv, host := newTestServer(t)
	host.Start()
	for _, id := range []int{1, 12, 12} {
		host.RecordLap(id)
	}

	var data model.LiveRankingData
	resp := do(t, http.MethodGet, srv.URL+"/race/ranking?category=Cat_1", "")
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Standings) != 1 || data.Standings[0].ParticipantID != 1 {
		t.Fatalf("unexpected standings %+v", data.Standings)
	}

	var list []model.LapEvent
	resp = do(t, http.MethodGet, srv.URL+"/race/events", "")
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 3 || list[2].ParticipantID != 12 || list[2].Lap != 2 {
		t.Fatalf("unexpected events %+v", list)
	}
}

func TestGetRaceReturnsSnapshot(t *testing.T) {
	srv, host := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/race", "")

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["name"] != "R1" || got["startTimestamp"] != "" {
		t.Fatalf("unexpected race %v (%s)", got, host.Snapshot())
	}
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]json.RawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestLiveRanking(t *testing.T) {
	srv, host := newTestServer(t)
	host.Start()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/race/live"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if msg := readMessage(t, conn); string(msg["type"]) != `"ranking"` {
		t.Fatalf("expected initial ranking, got %s", msg["type"])
	}

	host.RecordLap(4)
	lap := readMessage(t, conn)
	if string(lap["type"]) != `"lap"` {
		t.Fatalf("expected lap, got %s", lap["type"])
	}
	ranking := readMessage(t, conn)
	var data model.LiveRankingData
	if err := json.Unmarshal(ranking["body"], &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Standings) != 1 || data.Standings[0].ParticipantID != 4 {
		t.Fatalf("unexpected standings %+v", data.Standings)
	}
}

func TestLiveReplay(t *testing.T) {
	srv, host := newTestServer(t)
	host.Start()
	for _, id := range []int{1, 2, 1} {
		host.RecordLap(id)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/race/replay/live"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	want := []int{1, 2, 1}
	for i, id := range want {
		msg := readMessage(t, conn)
		var p struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(msg["body"], &p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.ID != id {
			t.Fatalf("frame %d: expected %d, got %d", i, id, p.ID)
		}
	}
}

func TestRoutes(t *testing.T) {
	m := NewManager("", nil, nil, pubsub.NewPubSub[model.LapEvent](), pubsub.NewPubSub[model.RaceStarted]())
	routes := strings.Join(m.Routes(), "\n")
	for _, want := range []string{"POST /race/start", "POST /race/laps/{id}", "GET /race/live"} {
		if !strings.Contains(routes, want) {
			t.Errorf("missing route %q in\n%s", want, routes)
		}
	}
}
