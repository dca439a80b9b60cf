package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/chattail/db"
)

// HandleChatRecent returns archived chat items for a live id, oldest
// first. Params: live_id (defaults to the current session's stream),
// limit (default 100, max 5000).
func (h *Handlers) HandleChatRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.db == nil {
		http.Error(w, "archive disabled", http.StatusServiceUnavailable)
		return
	}
	liveID := r.URL.Query().Get("live_id")
	if liveID == "" && h.sess != nil {
		liveID = h.sess.LiveID()
	}
	if liveID == "" {
		http.Error(w, "live_id required", http.StatusBadRequest)
		return
	}
	limit := parseIntQuery(r, "limit", 100)

	items, err := db.RecentItems(r.Context(), h.db, liveID, limit)
	if err != nil {
		slog.Error("recent items query failed", slog.Any("err", err), slog.String("component", "http"))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

// HandleChatLive streams normalized chat items as Server-Sent Events
// until the client disconnects.
func (h *Handlers) HandleChatLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx := r.Context()
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return
		case item, open := <-ch:
			if !open {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				slog.Warn("failed to write SSE data prefix", slog.Any("err", err))
				return
			}
			_ = enc.Encode(map[string]any{
				"id":         item.ID,
				"kind":       item.Kind(),
				"author":     item.Author.Name,
				"channel_id": item.Author.ChannelID,
				"message":    item.PlainText(),
				"superchat":  item.Superchat,
				"membership": item.Membership,
				"ts":         item.Timestamp,
			})
			if _, err := w.Write([]byte("\n")); err != nil {
				slog.Warn("failed to write SSE newline", slog.Any("err", err))
				return
			}
			flusher.Flush()
		}
	}
}
