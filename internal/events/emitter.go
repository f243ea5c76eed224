package events

import (
	"context"
	"sync"

	"github.com/phrazzld/tasklist-api/internal/platform/logger"
)

// LogEventEmitter is an EventEmitter that records events to the structured
// log and keeps a bounded in-memory tail for inspection. It stands in for a
// real message broker.
type LogEventEmitter struct {
	mu     sync.Mutex
	recent []*TaskEvent
	limit  int
}

// Ensure LogEventEmitter implements EventEmitter.
var _ EventEmitter = (*LogEventEmitter)(nil)

// NewLogEventEmitter creates an emitter that keeps at most limit recent
// events. A limit below 1 falls back to 100.
func NewLogEventEmitter(limit int) *LogEventEmitter {
	if limit < 1 {
		limit = 100
	}
	return &LogEventEmitter{
		recent: make([]*TaskEvent, 0, limit),
		limit:  limit,
	}
}

// EmitEvent implements EventEmitter.
func (e *LogEventEmitter) EmitEvent(ctx context.Context, event *TaskEvent) error {
	log := logger.FromContext(ctx)

	e.mu.Lock()
	if len(e.recent) >= e.limit {
		// Drop the oldest entry to stay within the bound.
		copy(e.recent, e.recent[1:])
		e.recent = e.recent[:len(e.recent)-1]
	}
	e.recent = append(e.recent, event)
	e.mu.Unlock()

	log.Info("event emitted",
		"event_id", event.ID,
		"event_type", event.Type,
		"task_id", event.TaskID,
		"user_id", event.UserID)

	return nil
}

// Recent returns a copy of the retained events, oldest first.
func (e *LogEventEmitter) Recent() []*TaskEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*TaskEvent, len(e.recent))
	copy(out, e.recent)
	return out
}
