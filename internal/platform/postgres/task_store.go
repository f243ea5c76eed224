package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// taskColumns is the column list shared by every task SELECT.
const taskColumns = `id, title, description, deadline, priority, status,
	completed, completed_at, created_by, assigned_to, created_at, updated_at`

// TaskStore implements the store.TaskStore interface using a PostgreSQL
// database as the storage backend.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface. It accepts a database connection or transaction that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore interface
var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Deadline,
		task.Priority, task.Status, task.Completed, task.CompletedAt,
		task.CreatedBy, task.AssignedTo, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// List implements store.TaskStore.List
func (s *TaskStore) List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) (*store.TaskPage, error) {
	filter = filter.Normalize()
	where, args := buildTaskListWhere(userID, filter)

	page := &store.TaskPage{
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}

	// Total count of matching tasks (unpaginated).
	countQuery := `SELECT COUNT(*) FROM tasks ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&page.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	// Overdue count ignores the filter: the list view shows it regardless of
	// how the listing is narrowed.
	overdueQuery := `
		SELECT COUNT(*) FROM tasks
		WHERE (created_by = $1 OR assigned_to = $1)
		  AND deadline IS NOT NULL AND deadline < NOW()
		  AND completed = FALSE`
	if err := s.db.QueryRowContext(ctx, overdueQuery, userID).Scan(&page.OverdueCount); err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks %s
		ORDER BY deadline ASC NULLS LAST, created_at DESC
		LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)+1, len(args)+2)

	offset := (filter.Page - 1) * filter.PageSize
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.PageSize, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		page.Tasks = append(page.Tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return page, nil
}

// ListOverdue implements store.TaskStore.ListOverdue
func (s *TaskStore) ListOverdue(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE deadline IS NOT NULL AND deadline < NOW() AND completed = FALSE
		ORDER BY deadline ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, deadline = $4, priority = $5,
		    status = $6, completed = $7, completed_at = $8, assigned_to = $9,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Deadline,
		task.Priority, task.Status, task.Completed, task.CompletedAt,
		task.AssignedTo)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// WithTx implements store.TaskStore.WithTx
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// buildTaskListWhere assembles the WHERE clause for List from the filter.
// $1 is always the user ID; filter conditions take the following positions.
// Kept as a pure function so the query shape is unit-testable without a
// database.
func buildTaskListWhere(userID uuid.UUID, filter store.TaskFilter) (string, []any) {
	args := []any{userID}

	var visibility string
	if filter.AssignedOnly {
		visibility = "assigned_to = $1"
	} else {
		visibility = "(created_by = $1 OR assigned_to = $1)"
	}

	conditions := []string{visibility}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}

	if filter.HideCompleted {
		conditions = append(conditions, "completed = FALSE")
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row into a domain.Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var deadline, completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&deadline,
		&task.Priority,
		&task.Status,
		&task.Completed,
		&completedAt,
		&task.CreatedBy,
		&task.AssignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deadline.Valid {
		task.Deadline = &deadline.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}
