package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/auth"
	"github.com/spec-kit/dashboard/internal/events"
)

const defaultAuditCapacity = 100

// AuditEntry is one recorded session lifecycle event.
type AuditEntry struct {
	Event  events.EventType
	Cause  string
	UserID string
	From   auth.Status
	To     auth.Status
	At     time.Time
}

// SessionAuditWorker logs session lifecycle events and keeps the most recent
// ones in memory.
type SessionAuditWorker struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	capacity   int

	mu      sync.Mutex
	entries []AuditEntry
	stops   []func()
}

// NewSessionAuditWorker creates the worker. capacity <= 0 keeps 100 entries.
func NewSessionAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger, capacity int) *SessionAuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &SessionAuditWorker{dispatcher: dispatcher, logger: logger, capacity: capacity}
}

// Start subscribes to every session event. Calling Start twice is a no-op.
func (w *SessionAuditWorker) Start() {
	if w == nil || w.dispatcher == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.stops) > 0 {
		return
	}
	for _, eventType := range events.SessionEvents {
		w.stops = append(w.stops, w.dispatcher.Subscribe(eventType, w.handle))
	}
}

// Stop unsubscribes.
func (w *SessionAuditWorker) Stop() {
	w.mu.Lock()
	stops := w.stops
	w.stops = nil
	w.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

// Recent returns recorded entries, oldest first.
func (w *SessionAuditWorker) Recent() []AuditEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]AuditEntry(nil), w.entries...)
}

func (w *SessionAuditWorker) handle(_ context.Context, event events.Event) error {
	entry := AuditEntry{Event: event.Type, Cause: event.Cause, At: event.Timestamp}
	if tr, ok := event.Payload.(auth.Transition); ok {
		entry.From = tr.From.Status()
		entry.To = tr.To.Status()
		if p, ok := tr.To.Principal(); ok {
			entry.UserID = p.ID
		} else if p, ok := tr.From.Principal(); ok {
			entry.UserID = p.ID
		}
	}

	w.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("cause", entry.Cause),
		zap.String("user_id", entry.UserID),
		zap.String("from", string(entry.From)),
		zap.String("to", string(entry.To)),
	)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	if over := len(w.entries) - w.capacity; over > 0 {
		w.entries = append([]AuditEntry(nil), w.entries[over:]...)
	}
	return nil
}
