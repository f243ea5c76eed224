package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/events"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// CreateTaskParams carries the caller-supplied fields for creating a task.
type CreateTaskParams struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    domain.TaskPriority
	AssignedTo  uuid.UUID
}

// UpdateTaskParams carries the full replacement state for updating a task.
// Identity, creator, and timestamps are never caller-controlled.
type UpdateTaskParams struct {
	Title       string
	Description string
	Deadline    *time.Time
	Priority    domain.TaskPriority
	Status      domain.TaskStatus
	AssignedTo  uuid.UUID
}

// TaskService implements the task management business logic: ownership and
// assignment rules, completion transitions, and event emission.
type TaskService struct {
	taskStore store.TaskStore
	userStore store.UserStore
	emitter   events.EventEmitter
	db        *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskStore store.TaskStore, userStore store.UserStore, emitter events.EventEmitter) *TaskService {
	return &TaskService{
		taskStore: taskStore,
		userStore: userStore,
		emitter:   emitter,
	}
}

// WithTransactions enables transactional writes: operations touching both
// the user and task tables (assignee check plus write) run atomically.
// Without a database handle the service calls the stores directly, which
// unit tests rely on.
func (s *TaskService) WithTransactions(db *sql.DB) *TaskService {
	s.db = db
	return s
}

// withStores runs fn against the service's stores, inside a single
// transaction when a database handle is configured.
func (s *TaskService) withStores(ctx context.Context, fn func(ts store.TaskStore, us store.UserStore) error) error {
	if s.db == nil {
		return fn(s.taskStore, s.userStore)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(s.taskStore.WithTx(tx), s.userStore.WithTx(tx))
	})
}

// Create creates a new task owned by the given user. A task with no
// assignee is assigned to its creator. Emits a task.created event.
func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, params CreateTaskParams) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	task, err := domain.NewTask(params.Title, params.Description, params.Deadline, params.Priority, userID)
	if err != nil {
		return nil, err
	}

	assignee := params.AssignedTo
	if assignee == uuid.Nil {
		assignee = userID
	}
	task.AssignedTo = assignee

	err = s.withStores(ctx, func(ts store.TaskStore, us store.UserStore) error {
		if err := resolveAssignee(ctx, us, assignee); err != nil {
			return err
		}
		return ts.Create(ctx, task)
	})
	if err != nil {
		if errors.Is(err, ErrAssigneeNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		"task_id", task.ID,
		"created_by", task.CreatedBy,
		"assigned_to", task.AssignedTo,
		"priority", task.Priority)

	s.emit(ctx, events.NewTaskEvent(events.EventTypeTaskCreated, task.ID, task.AssignedTo, nil))

	return task, nil
}

// Get returns a task by ID. Tasks the user cannot see are reported as not
// found rather than forbidden, so their existence is not revealed.
func (s *TaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsVisibleTo(userID) {
		return nil, store.ErrTaskNotFound
	}

	return task, nil
}

// List returns a page of tasks visible to the user, narrowed by the filter.
func (s *TaskService) List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) (*store.TaskPage, error) {
	return s.taskStore.List(ctx, userID, filter)
}

// Update replaces a task's caller-editable fields. The creator and the
// assignee may edit; anyone else gets ErrPermissionDenied. A supplied
// deadline in the past is rejected; an omitted assignee reassigns the task
// to the requesting user. A status change to completed records the
// completion timestamp, and a change away from completed clears it. Emits
// a task.completed event when the task transitions to completed.
func (s *TaskService) Update(ctx context.Context, userID, taskID uuid.UUID, params UpdateTaskParams) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if !task.CanBeEditedBy(userID) {
		return nil, ErrPermissionDenied
	}

	if params.Deadline != nil && params.Deadline.Before(time.Now().UTC()) {
		return nil, domain.ErrDeadlineInPast
	}

	assignee := params.AssignedTo
	if assignee == uuid.Nil {
		assignee = userID
	}

	wasCompleted := task.Completed

	task.Title = params.Title
	task.Description = params.Description
	task.Deadline = params.Deadline
	task.Priority = params.Priority
	task.AssignedTo = assignee

	switch {
	case params.Status == domain.StatusCompleted && !wasCompleted:
		task.MarkCompleted()
	case params.Status != domain.StatusCompleted && wasCompleted:
		task.MarkPending()
		task.Status = params.Status
		task.UpdatedAt = time.Now().UTC()
	default:
		task.Status = params.Status
		task.UpdatedAt = time.Now().UTC()
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	err = s.withStores(ctx, func(ts store.TaskStore, us store.UserStore) error {
		if err := resolveAssignee(ctx, us, assignee); err != nil {
			return err
		}
		return ts.Update(ctx, task)
	})
	if err != nil {
		if errors.Is(err, ErrAssigneeNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	log.Info("task updated",
		"task_id", task.ID,
		"updated_by", userID,
		"status", task.Status)

	if task.Completed && !wasCompleted {
		s.emit(ctx, events.NewTaskEvent(events.EventTypeTaskCompleted, task.ID, task.AssignedTo, nil))
	}

	return task, nil
}

// Delete removes a task. Only the creator may delete; the assignee gets
// ErrPermissionDenied.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContext(ctx)

	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return err
	}

	if !task.CanBeDeletedBy(userID) {
		return ErrPermissionDenied
	}

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	log.Info("task deleted",
		"task_id", taskID,
		"deleted_by", userID)

	return nil
}

// ToggleComplete flips a task between completed and pending. The creator
// and the assignee may toggle. Emits a task.completed event when the task
// becomes completed.
func (s *TaskService) ToggleComplete(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if !task.CanBeEditedBy(userID) {
		return nil, ErrPermissionDenied
	}

	if task.Completed {
		task.MarkPending()
	} else {
		task.MarkCompleted()
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to toggle task completion: %w", err)
	}

	log.Info("task completion toggled",
		"task_id", task.ID,
		"completed", task.Completed,
		"toggled_by", userID)

	if task.Completed {
		s.emit(ctx, events.NewTaskEvent(events.EventTypeTaskCompleted, task.ID, task.AssignedTo, nil))
	}

	return task, nil
}

// resolveAssignee checks that the assignee exists.
func resolveAssignee(ctx context.Context, users store.UserStore, assignee uuid.UUID) error {
	if _, err := users.GetByID(ctx, assignee); err != nil {
		if store.IsNotFoundError(err) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to look up assignee: %w", err)
	}
	return nil
}

// emit publishes an event, logging failures without failing the operation.
func (s *TaskService) emit(ctx context.Context, event *events.TaskEvent) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContext(ctx).Warn("failed to emit event",
			"error", err,
			"event_type", event.Type,
			"task_id", event.TaskID)
	}
}
