package server

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/onnwee/chattail/session"
)

// Handlers holds dependencies for all HTTP handlers. db may be nil when
// the archive is disabled; the chat archive endpoints then return 503.
type Handlers struct {
	db   *sql.DB
	sess *session.Session
	hub  *Hub
}

// NewHandlers creates a Handlers instance with the given dependencies.
func NewHandlers(db *sql.DB, sess *session.Session, hub *Hub) *Handlers {
	return &Handlers{db: db, sess: sess, hub: hub}
}

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error {
			if h.db == nil {
				return nil
			}
			return h.db.PingContext(r.Context())
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus reports the polling session lifecycle.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out := map[string]any{
		"state":   "idle",
		"live_id": "",
		"items":   uint64(0),
	}
	if h.sess != nil {
		out["state"] = h.sess.State().String()
		out["live_id"] = h.sess.LiveID()
		out["items"] = h.sess.Items()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
