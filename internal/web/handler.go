package web

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/middrag/middrag/internal/config"
	"github.com/middrag/middrag/internal/database"
	"github.com/middrag/middrag/internal/history"
	"github.com/middrag/middrag/internal/models"
	"github.com/middrag/middrag/internal/reporter"
	"github.com/middrag/middrag/pkg/utils"
)

const defaultEventLimit = 100

// ConfigSource supplies the live configuration.
type ConfigSource interface {
	Config() *config.Config
}

// Runtime exposes the state of a running service.
type Runtime interface {
	EngineRunning() bool
	History() history.State
	DisplayServer() string
}

// Handler serves the status API and the dashboard.
type Handler struct {
	config   ConfigSource
	repo     *database.Repository
	reporter *reporter.Reporter
	runtime  Runtime
	feedback http.Handler
	started  time.Time
}

// NewHandler creates a handler. repo, rt and feedback may be nil.
func NewHandler(cfg ConfigSource, repo *database.Repository, rt Runtime, feedback http.Handler) *Handler {
	h := &Handler{
		config:   cfg,
		repo:     repo,
		runtime:  rt,
		feedback: feedback,
		started:  time.Now(),
	}
	if repo != nil {
		h.reporter = reporter.New(repo)
	}
	return h
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/events", h.handleEvents)
	mux.HandleFunc("/api/events/latest", h.handleLatestEvent)
	mux.HandleFunc("/api/errors", h.handleErrors)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/status", h.handleStatus)

	if h.feedback != nil {
		mux.Handle("/ws/feedback", h.feedback)
	}

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !h.readable(w, r) {
		return
	}

	query := r.URL.Query()
	limit := defaultEventLimit
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		limit = l
	}

	since := time.Now().Add(-24 * time.Hour)
	if periodType := query.Get("period"); periodType != "" {
		period, err := h.reporter.Period(periodType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		since = period.Start
	}

	events, err := h.repo.GetEventsSince(since, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch events: %v", err), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []*models.GestureEvent{}
	}

	respondJSON(w, events)
}

func (h *Handler) handleLatestEvent(w http.ResponseWriter, r *http.Request) {
	if !h.readable(w, r) {
		return
	}

	event, err := h.repo.GetLatest()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest event: %v", err), http.StatusInternalServerError)
		return
	}

	if event == nil {
		http.Error(w, "No events found", http.StatusNotFound)
		return
	}

	respondJSON(w, event)
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	if !h.readable(w, r) {
		return
	}

	errs, err := h.repo.GetErrorsSince(time.Now().Add(-24 * time.Hour))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch errors: %v", err), http.StatusInternalServerError)
		return
	}
	if errs == nil {
		errs = []*models.ErrorLog{}
	}

	respondJSON(w, errs)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if !h.readable(w, r) {
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}

	respondJSON(w, report)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if !h.readable(w, r) {
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		respondSummaryHTML(w, report)
		return
	}

	respondJSON(w, map[string]interface{}{
		"period":        report.Period,
		"actions":       report.Actions,
		"total_events":  report.TotalEvents,
		"boundary_hits": report.BoundaryHits,
		"failures":      report.Failures,
	})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}

	if _, err := h.reporter.Period(periodType); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	report, err := h.reporter.GenerateReport(periodType)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return report, true
}

func respondSummaryHTML(w http.ResponseWriter, report *models.Report) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(report.Actions) == 0 {
		w.Write([]byte(`<div class="loading">No gestures yet</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	for _, a := range report.Actions {
		fmt.Fprintf(&b, `
		<div class="action-item" style="--bar-width: %.1f%%">
			<span class="action-name">%s</span>
			<span class="action-count">%d</span>
			<span class="action-percentage">%.1f%%</span>
		</div>`, a.Percentage, html.EscapeString(a.Action), a.EventCount, a.Percentage)
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<div class="total">Total: %d (boundary %d, failed %d)</div>`,
		report.TotalEvents, report.BoundaryHits, report.Failures)

	w.Write([]byte(b.String()))
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := h.config.Config()
	status := map[string]interface{}{
		"running":          h.runtime != nil,
		"uptime":           utils.FormatRoundedUnit(time.Since(h.started)),
		"database_enabled": h.repo != nil,
		"gesture":          cfg.Gesture,
		"tracker":          cfg.Tracker,
	}

	if h.runtime != nil {
		status["engine_running"] = h.runtime.EngineRunning()
		status["display_server"] = h.runtime.DisplayServer()
		status["history"] = h.runtime.History()
	}

	if h.repo != nil {
		if latest, err := h.repo.GetLatest(); err == nil && latest != nil {
			status["latest_event"] = map[string]interface{}{
				"direction": latest.Direction,
				"action":    latest.Action,
				"outcome":   latest.Outcome,
				"timestamp": latest.Timestamp,
			}
		}
	}

	respondJSON(w, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// readable rejects non-GET requests and requests that need the usage log
// when it is disabled.
func (h *Handler) readable(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if h.repo == nil {
		http.Error(w, "Usage log disabled", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Errorf("Error encoding JSON: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>middrag</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f5f5;
            padding: 20px;
            color: #333;
        }
        h1 { margin-bottom: 30px; }
        .dashboard { display: flex; gap: 20px; flex-wrap: wrap; }
        .report-box {
            flex: 1;
            min-width: 300px;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 24px;
        }
        .report-box h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            color: #2c3e50;
            border-bottom: 2px solid #3498db;
            padding-bottom: 10px;
        }
        .action-item {
            display: flex;
            justify-content: space-between;
            padding: 12px 8px;
            border-bottom: 1px solid #eee;
            background: linear-gradient(to right, rgba(52,152,219,0.2) var(--bar-width), transparent var(--bar-width));
        }
        .total { margin-top: 16px; font-weight: 600; }
        .loading { color: #7f8c8d; }
        #feedback { font-size: 4rem; text-align: center; min-height: 5rem; transition: opacity 0.4s ease; }
        #feedback.boundary { color: #c0392b; }
    </style>
</head>
<body>
    <h1>middrag</h1>
    <div class="dashboard">
        <div class="report-box">
            <h2>Live</h2>
            <div id="feedback"></div>
        </div>
        <div class="report-box">
            <h2>Today</h2>
            <div hx-get="/api/summary?period=day" hx-trigger="load, every 30s" hx-swap="innerHTML"></div>
        </div>
        <div class="report-box">
            <h2>This Week</h2>
            <div hx-get="/api/summary?period=week" hx-trigger="load, every 30s" hx-swap="innerHTML"></div>
        </div>
        <div class="report-box">
            <h2>This Month</h2>
            <div hx-get="/api/summary?period=month" hx-trigger="load, every 30s" hx-swap="innerHTML"></div>
        </div>
    </div>
    <script>
        const arrows = { left: '←', right: '→', up: '↑', down: '↓' };
        const el = document.getElementById('feedback');
        let timer;
        function connect() {
            const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws/feedback');
            ws.onmessage = (e) => {
                const msg = JSON.parse(e.data);
                el.textContent = arrows[msg.direction] || '';
                el.className = msg.boundary ? 'boundary' : '';
                el.style.opacity = 1;
                clearTimeout(timer);
                timer = setTimeout(() => { el.style.opacity = 0; }, 600);
            };
            ws.onclose = () => setTimeout(connect, 2000);
        }
        connect();
    </script>
</body>
</html>`
