// Package events defines the application's domain events and the emitter
// used to publish them. Events decouple task lifecycle changes from the
// side effects they trigger, such as overdue reminders.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the application.
const (
	// EventTypeTaskCreated is emitted when a new task is created.
	EventTypeTaskCreated = "task.created"

	// EventTypeTaskCompleted is emitted when a task is marked completed.
	EventTypeTaskCompleted = "task.completed"

	// EventTypeTaskOverdue is emitted by the reminder sweep for each task
	// whose deadline has passed without completion.
	EventTypeTaskOverdue = "task.overdue"
)

// TaskEvent represents a task lifecycle event.
type TaskEvent struct {
	// ID is a unique identifier for this event instance.
	ID uuid.UUID `json:"id"`

	// Type is one of the EventType constants.
	Type string `json:"type"`

	// TaskID identifies the task the event concerns.
	TaskID uuid.UUID `json:"task_id"`

	// UserID identifies the user the event should be routed to, typically
	// the task's assignee.
	UserID uuid.UUID `json:"user_id"`

	// Payload carries event-specific data as JSON.
	Payload json.RawMessage `json:"payload,omitempty"`

	// EmittedAt is when the event was created.
	EmittedAt time.Time `json:"emitted_at"`
}

// NewTaskEvent creates an event of the given type for a task. The payload
// may be nil.
func NewTaskEvent(eventType string, taskID, userID uuid.UUID, payload json.RawMessage) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		UserID:    userID,
		Payload:   payload,
		EmittedAt: time.Now().UTC(),
	}
}

// EventEmitter publishes task events to interested consumers.
type EventEmitter interface {
	// EmitEvent publishes the event. Implementations must not block
	// indefinitely; delivery is best-effort.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
