package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/chattail/chat"
	"github.com/onnwee/chattail/telemetry"
)

// Recorder archives normalized chat items. It is wired to a session as
// an item sink; insert failures are logged and counted but never fed
// back into the polling loop.
type Recorder struct {
	db *sql.DB

	mu     sync.Mutex
	liveID string
}

// NewRecorder returns a recorder writing to db.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// SetLiveID records the stream the following items belong to. Wire this
// to the session's bootstrap notification.
func (r *Recorder) SetLiveID(liveID string) {
	r.mu.Lock()
	r.liveID = liveID
	r.mu.Unlock()
}

// LiveID returns the stream id set by the last bootstrap.
func (r *Recorder) LiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveID
}

// HandleItem persists one item. Safe to call from the polling
// goroutine; each insert gets its own short timeout.
func (r *Recorder) HandleItem(item chat.ChatItem) {
	liveID := r.LiveID()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := InsertChatItem(ctx, r.db, liveID, item); err != nil {
		telemetry.IncArchiveInsert(true)
		slog.Error("archive insert failed",
			slog.String("item_id", item.ID),
			slog.String("kind", item.Kind()),
			slog.Any("err", err),
			slog.String("component", "db_recorder"))
		return
	}
	telemetry.IncArchiveInsert(false)
}
