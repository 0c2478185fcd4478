package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Brownie44l1/modeld/internal/messaging"
	"github.com/rs/zerolog/log"
)

// Handler serves the daemon's status. It sits behind the loop as a publisher
// and keeps the latest event; HTTP requests read it from other goroutines.
type Handler struct {
	model     string
	startedAt time.Time

	mu        sync.RWMutex
	latest    *messaging.Event
	published uint64
	lastAt    time.Time
}

func NewHandler(model string) *Handler {
	return &Handler{
		model:     model,
		startedAt: time.Now(),
	}
}

// Publish records the event; it never fails.
func (h *Handler) Publish(_ context.Context, _ string, event *messaging.Event) error {
	h.mu.Lock()
	h.latest = event
	h.published++
	h.lastAt = time.Now()
	h.mu.Unlock()
	return nil
}

type HealthResponse struct {
	Status    string  `json:"status"`
	Model     string  `json:"model"`
	Published uint64  `json:"published"`
	UptimeSec float64 `json:"uptime_sec"`
	LastAgoMs int64   `json:"last_ago_ms"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := HealthResponse{
		Status:    "healthy",
		Model:     h.model,
		Published: h.published,
		UptimeSec: time.Since(h.startedAt).Seconds(),
		LastAgoMs: -1,
	}
	if !h.lastAt.IsZero() {
		resp.LastAgoMs = time.Since(h.lastAt).Milliseconds()
	}
	h.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()

	if latest == nil {
		http.Error(w, "No message published yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// Routes mounts the status endpoints.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", enableCORS(h.Health))
	mux.HandleFunc("/latest", enableCORS(h.Latest))
	return mux
}

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write status response")
	}
}
