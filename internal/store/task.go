package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tasklist-api/internal/domain"
)

// DefaultPageSize is the number of tasks returned per page when the caller
// does not specify one.
const DefaultPageSize = 10

// MaxPageSize caps the per-page size a caller may request.
const MaxPageSize = 100

// TaskFilter narrows a task listing. The zero value lists every task the
// user can see (created by or assigned to them), completed ones included.
type TaskFilter struct {
	// Status restricts results to a single status when non-empty.
	Status domain.TaskStatus

	// Priority restricts results to a single priority when non-empty.
	Priority domain.TaskPriority

	// HideCompleted excludes completed tasks from the listing.
	HideCompleted bool

	// AssignedOnly restricts results to tasks assigned to the user,
	// dropping tasks they merely created.
	AssignedOnly bool

	// Page is the 1-based page number. Values below 1 are treated as 1.
	Page int

	// PageSize is the number of tasks per page. Values below 1 fall back to
	// DefaultPageSize; values above MaxPageSize are clamped.
	PageSize int
}

// Normalize returns a copy of the filter with pagination bounds applied.
func (f TaskFilter) Normalize() TaskFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// TaskPage is one page of a task listing plus the counts the task list view
// displays alongside it.
type TaskPage struct {
	Tasks        []*domain.Task
	TotalCount   int
	OverdueCount int
	Page         int
	PageSize     int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns the page of tasks visible to the given user (tasks they
	// created or are assigned to), narrowed by the filter, ordered by
	// deadline ascending with NULL deadlines last, then newest first.
	// The page also carries the user's total and overdue counts.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) (*TaskPage, error)

	// ListOverdue returns every task in the store whose deadline has passed
	// and that is not completed. Used by the reminder sweep.
	ListOverdue(ctx context.Context) ([]*domain.Task, error)

	// Update modifies an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns validation errors from the domain Task if data is invalid.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TaskStore
}
