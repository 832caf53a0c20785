package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/internal/database"
	"github.com/middrag/middrag/internal/feedback"
	"github.com/middrag/middrag/internal/gesture"
	"github.com/middrag/middrag/internal/history"
	"github.com/middrag/middrag/internal/models"
	"github.com/middrag/middrag/pkg/desktop"
)

type fakeRuntime struct{}

func (fakeRuntime) EngineRunning() bool   { return true }
func (fakeRuntime) DisplayServer() string { return "x11" }
func (fakeRuntime) History() history.State {
	return history.State{History: []desktop.App{{ID: "firefox", Name: "Firefox"}}, Cursor: 0}
}

func newRepo(t *testing.T) *database.Repository {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "middrag.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return database.NewRepository(db)
}

func newMux(t *testing.T, repo *database.Repository, rt Runtime, fb http.Handler) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(config.NewStore(config.Default(), ""), repo, rt, fb).SetupRoutes(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, repo *database.Repository) {
	t.Helper()
	now := time.Now()
	for _, e := range []*models.GestureEvent{
		{Timestamp: now.Add(-time.Minute), RunID: "r", Direction: "left", Action: "switch-prev-app", Outcome: "switched", DisplayServer: "x11"},
		{Timestamp: now, RunID: "r", Direction: "up", Action: "mission-control", Outcome: "fired", DisplayServer: "x11"},
	} {
		require.NoError(t, repo.Create(e))
	}
}

func TestHealth(t *testing.T) {
	rec := get(t, newMux(t, nil, nil, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestStatus(t *testing.T) {
	repo := newRepo(t)
	seed(t, repo)
	rec := get(t, newMux(t, repo, fakeRuntime{}, nil), "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["engine_running"])
	assert.Equal(t, "x11", body["display_server"])
	assert.Equal(t, true, body["database_enabled"])

	gesture := body["gesture"].(map[string]interface{})
	assert.Equal(t, "switch-prev-app", gesture["drag_left"])

	hist := body["history"].(map[string]interface{})
	assert.Len(t, hist["history"], 1)

	latest := body["latest_event"].(map[string]interface{})
	assert.Equal(t, "mission-control", latest["action"])
}

func TestStatusWithoutRuntime(t *testing.T) {
	rec := get(t, newMux(t, nil, nil, nil), "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
	assert.NotContains(t, body, "history")
}

func TestEvents(t *testing.T) {
	repo := newRepo(t)
	seed(t, repo)
	mux := newMux(t, repo, nil, nil)

	rec := get(t, mux, "/api/events?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.GestureEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "left", events[0].Direction)

	rec = get(t, mux, "/api/events?period=year")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, mux, "/api/events/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mission-control")
}

func TestEventsEmpty(t *testing.T) {
	mux := newMux(t, newRepo(t), nil, nil)

	rec := get(t, mux, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = get(t, mux, "/api/events/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsageLogDisabled(t *testing.T) {
	mux := newMux(t, nil, nil, nil)
	for _, path := range []string{"/api/events", "/api/report", "/api/summary", "/api/errors"} {
		assert.Equal(t, http.StatusServiceUnavailable, get(t, mux, path).Code, path)
	}
}

func TestReport(t *testing.T) {
	repo := newRepo(t)
	seed(t, repo)
	mux := newMux(t, repo, nil, nil)

	rec := get(t, mux, "/api/report?period=week")
	require.Equal(t, http.StatusOK, rec.Code)
	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.TotalEvents)
	assert.Equal(t, "week", report.Period.Type)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/report?period=decade").Code)
}

func TestSummaryHTML(t *testing.T) {
	repo := newRepo(t)
	seed(t, repo)

	rec := get(t, newMux(t, repo, nil, nil), "/api/summary?period=day", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "mission-control")
	assert.Contains(t, rec.Body.String(), "Total: 2")
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newMux(t, newRepo(t), nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIndex(t *testing.T) {
	mux := newMux(t, nil, nil, nil)
	rec := get(t, mux, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/ws/feedback")

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/nope").Code)
}

func TestFeedbackRoute(t *testing.T) {
	hub := feedback.NewHub(false)
	server := httptest.NewServer(newMux(t, nil, nil, hub))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/feedback"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Show(gesture.Right, false)

	var msg feedback.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "right", msg.Direction)
}

func TestServerListen(t *testing.T) {
	h := NewHandler(config.NewStore(config.Default(), ""), nil, nil, nil)
	s := NewServer(config.WebConfig{Host: "127.0.0.1", Port: 1}, h, -1)
	s.server.Addr = "127.0.0.1:0"
	require.NoError(t, s.Listen())
	assert.NotEqual(t, "127.0.0.1:0", s.GetAddress())

	go s.Start()
	defer s.Shutdown(context.Background())

	resp, err := http.Get("http://" + s.GetAddress() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
