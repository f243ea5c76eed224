package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskPriority indicates how urgent a task is.
type TaskPriority string

// Valid task priorities.
const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the defined values.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus indicates where a task is in its lifecycle.
type TaskStatus string

// Valid task statuses.
const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether the status is one of the defined values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// MaxTaskTitleLength is the maximum number of characters allowed in a task title.
const MaxTaskTitleLength = 200

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task's title exceeds the length limit.
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 200 characters")

	// ErrTaskCreatorEmpty is returned when a task's creator ID is empty or nil.
	ErrTaskCreatorEmpty = errors.New("task creator ID cannot be empty")

	// ErrInvalidTaskPriority is returned when a task priority is not one of low, medium, high.
	ErrInvalidTaskPriority = errors.New("invalid task priority")

	// ErrInvalidTaskStatus is returned when a task status is not one of pending, in_progress, completed.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrDeadlineInPast is returned when a new task is created with a deadline in the past.
	ErrDeadlineInPast = errors.New("deadline cannot be in the past")
)

// Task represents a single todo item. A task is always owned by its creator
// and optionally assigned to another user; both relationships drive the
// permission rules below.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedBy   uuid.UUID    `json:"created_by"`
	AssignedTo  uuid.UUID    `json:"assigned_to"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask creates a new Task with the given title, creator, and optional
// fields. It generates a new UUID for the task ID, applies the default
// priority (medium) and status (pending) when unset, and sets timestamps.
// Returns an error if validation fails.
//
// A deadline in the past is rejected; tasks loaded from the store may still
// legitimately carry past deadlines.
func NewTask(title, description string, deadline *time.Time, priority TaskPriority, createdBy uuid.UUID) (*Task, error) {
	now := time.Now().UTC()

	if priority == "" {
		priority = PriorityMedium
	}

	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Deadline:    deadline,
		Priority:    priority,
		Status:      StatusPending,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if deadline != nil && deadline.Before(now) {
		return nil, ErrDeadlineInPast
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if len(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	if t.CreatedBy == uuid.Nil {
		return ErrTaskCreatorEmpty
	}

	if !t.Priority.IsValid() {
		return ErrInvalidTaskPriority
	}

	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}

	return nil
}

// MarkCompleted marks the task as completed, sets the completion timestamp,
// and updates the UpdatedAt timestamp.
func (t *Task) MarkCompleted() {
	now := time.Now().UTC()
	t.Completed = true
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// MarkPending reverts the task to the pending state and clears the
// completion timestamp.
func (t *Task) MarkPending() {
	t.Completed = false
	t.Status = StatusPending
	t.CompletedAt = nil
	t.UpdatedAt = time.Now().UTC()
}

// IsOverdue reports whether the task has a deadline in the past and is not
// yet completed. Tasks without a deadline are never overdue.
func (t *Task) IsOverdue() bool {
	if t.Deadline == nil || t.Completed {
		return false
	}
	return time.Now().UTC().After(*t.Deadline)
}

// DaysUntilDeadline returns the number of whole days until the deadline and
// true, or 0 and false when the task has no deadline. The count is negative
// for past deadlines.
func (t *Task) DaysUntilDeadline() (int, bool) {
	if t.Deadline == nil {
		return 0, false
	}
	delta := time.Until(*t.Deadline)
	return int(delta.Hours() / 24), true
}

// CanBeEditedBy reports whether the given user may modify the task.
// The creator and the assignee may edit.
func (t *Task) CanBeEditedBy(userID uuid.UUID) bool {
	return t.CreatedBy == userID || t.AssignedTo == userID
}

// CanBeDeletedBy reports whether the given user may delete the task.
// Only the creator may delete.
func (t *Task) CanBeDeletedBy(userID uuid.UUID) bool {
	return t.CreatedBy == userID
}

// IsVisibleTo reports whether the given user may view the task.
// Visibility follows the same rule as editing: creator or assignee.
func (t *Task) IsVisibleTo(userID uuid.UUID) bool {
	return t.CreatedBy == userID || t.AssignedTo == userID
}
