package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasklist-api/internal/api/shared"
	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/mocks"
	"github.com/phrazzld/tasklist-api/internal/service"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// newTaskRouter mounts the task handler behind a middleware that injects
// the given user ID, mirroring what the auth middleware does in production.
func newTaskRouter(taskStore *mocks.MockTaskStore, userID uuid.UUID) http.Handler {
	svc := service.NewTaskService(taskStore, &mocks.MockUserStore{}, &mocks.MockEventEmitter{})
	h := NewTaskHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/tasks", h.List)
	r.Post("/api/tasks", h.Create)
	r.Get("/api/tasks/{id}", h.Get)
	r.Put("/api/tasks/{id}", h.Update)
	r.Delete("/api/tasks/{id}", h.Delete)
	r.Post("/api/tasks/{id}/toggle", h.Toggle)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func storedTask(creator, assignee uuid.UUID) *domain.Task {
	now := time.Now().UTC()
	return &domain.Task{
		ID:         uuid.New(),
		Title:      "Prepare release notes",
		Priority:   domain.PriorityMedium,
		Status:     domain.StatusPending,
		CreatedBy:  creator,
		AssignedTo: assignee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreateTaskHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	taskStore := &mocks.MockTaskStore{}
	router := newTaskRouter(taskStore, userID)

	deadline := time.Now().UTC().Add(24 * time.Hour)
	w := doJSON(t, router, http.MethodPost, "/api/tasks", CreateTaskRequest{
		Title:    "Prepare release notes",
		Priority: "high",
		Deadline: &deadline,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Prepare release notes", resp.Title)
	assert.Equal(t, "high", resp.Priority)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, userID, resp.CreatedBy)
	assert.Equal(t, userID, resp.AssignedTo)
	assert.False(t, resp.IsOverdue)
}

func TestCreateTaskHandlerValidation(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(&mocks.MockTaskStore{}, uuid.New())

	w := doJSON(t, router, http.MethodPost, "/api/tasks", CreateTaskRequest{
		Priority: "high",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title is required")

	w = doJSON(t, router, http.MethodPost, "/api/tasks", CreateTaskRequest{
		Title:    "Bad priority",
		Priority: "urgent",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskHandlerPastDeadline(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(&mocks.MockTaskStore{}, uuid.New())

	past := time.Now().UTC().Add(-time.Hour)
	w := doJSON(t, router, http.MethodPost, "/api/tasks", CreateTaskRequest{
		Title:    "Too late",
		Deadline: &past,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Deadline cannot be in the past")
}

func TestTaskResponseDaysUntilDeadline(t *testing.T) {
	t.Parallel()

	task := storedTask(uuid.New(), uuid.New())
	resp := NewTaskResponse(task)
	assert.Nil(t, resp.DaysUntilDeadline)

	future := time.Now().UTC().Add(72 * time.Hour)
	task.Deadline = &future
	resp = NewTaskResponse(task)
	require.NotNil(t, resp.DaysUntilDeadline)
	assert.Equal(t, 2, *resp.DaysUntilDeadline)

	past := time.Now().UTC().Add(-49 * time.Hour)
	task.Deadline = &past
	resp = NewTaskResponse(task)
	require.NotNil(t, resp.DaysUntilDeadline)
	assert.Equal(t, -2, *resp.DaysUntilDeadline)
	assert.True(t, resp.IsOverdue)
}

func TestGetTaskHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	task := storedTask(userID, userID)
	taskStore := &mocks.MockTaskStore{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
			if id == task.ID {
				return task, nil
			}
			return nil, store.ErrTaskNotFound
		},
	}
	router := newTaskRouter(taskStore, userID)

	w := doJSON(t, router, http.MethodGet, "/api/tasks/"+task.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, task.ID, resp.ID)

	// Unknown ID
	w = doJSON(t, router, http.MethodGet, "/api/tasks/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed ID
	w = doJSON(t, router, http.MethodGet, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskHandlerInvisible(t *testing.T) {
	t.Parallel()

	task := storedTask(uuid.New(), uuid.New())
	taskStore := &mocks.MockTaskStore{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
			return task, nil
		},
	}
	// Request as a user with no relationship to the task
	router := newTaskRouter(taskStore, uuid.New())

	w := doJSON(t, router, http.MethodGet, "/api/tasks/"+task.ID.String(), nil)

	// Reads as not found, not forbidden
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTasksHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var gotFilter store.TaskFilter
	taskStore := &mocks.MockTaskStore{
		ListFn: func(ctx context.Context, uid uuid.UUID, filter store.TaskFilter) (*store.TaskPage, error) {
			gotFilter = filter
			return &store.TaskPage{
				Tasks:        []*domain.Task{storedTask(userID, userID)},
				TotalCount:   15,
				OverdueCount: 2,
				Page:         2,
				PageSize:     10,
			}, nil
		},
	}
	router := newTaskRouter(taskStore, userID)

	w := doJSON(t, router, http.MethodGet,
		"/api/tasks?status=pending&priority=high&hide_completed=true&assigned_only=true&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, domain.StatusPending, gotFilter.Status)
	assert.Equal(t, domain.PriorityHigh, gotFilter.Priority)
	assert.True(t, gotFilter.HideCompleted)
	assert.True(t, gotFilter.AssignedOnly)
	assert.Equal(t, 2, gotFilter.Page)

	var resp TaskListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Tasks, 1)
	assert.Equal(t, 15, resp.TotalCount)
	assert.Equal(t, 2, resp.OverdueCount)
	assert.Equal(t, 2, resp.Page)
}

func TestListTasksHandlerIgnoresBadParams(t *testing.T) {
	t.Parallel()

	var gotFilter store.TaskFilter
	taskStore := &mocks.MockTaskStore{
		ListFn: func(ctx context.Context, uid uuid.UUID, filter store.TaskFilter) (*store.TaskPage, error) {
			gotFilter = filter
			return &store.TaskPage{Page: 1, PageSize: 10}, nil
		},
	}
	router := newTaskRouter(taskStore, uuid.New())

	w := doJSON(t, router, http.MethodGet, "/api/tasks?status=bogus&priority=urgent&page=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, gotFilter.Status)
	assert.Empty(t, gotFilter.Priority)
	assert.Zero(t, gotFilter.Page)
}

func TestUpdateTaskHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	task := storedTask(userID, userID)
	taskStore := &mocks.MockTaskStore{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
			return task, nil
		},
	}
	router := newTaskRouter(taskStore, userID)

	w := doJSON(t, router, http.MethodPut, "/api/tasks/"+task.ID.String(), UpdateTaskRequest{
		Title:    "Prepare release notes v2",
		Priority: "low",
		Status:   "completed",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Prepare release notes v2", resp.Title)
	assert.Equal(t, "completed", resp.Status)
	assert.True(t, resp.Completed)
	assert.NotNil(t, resp.CompletedAt)
}

func TestUpdateTaskHandlerValidation(t *testing.T) {
	t.Parallel()

	router := newTaskRouter(&mocks.MockTaskStore{}, uuid.New())

	w := doJSON(t, router, http.MethodPut, "/api/tasks/"+uuid.New().String(), UpdateTaskRequest{
		Title: "Missing status and priority",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteTaskHandler(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	assignee := uuid.New()
	task := storedTask(creator, assignee)
	taskStore := &mocks.MockTaskStore{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
			return task, nil
		},
	}

	// The creator may delete
	w := doJSON(t, newTaskRouter(taskStore, creator), http.MethodDelete, "/api/tasks/"+task.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The assignee may not
	w = doJSON(t, newTaskRouter(taskStore, assignee), http.MethodDelete, "/api/tasks/"+task.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "permission")
}

func TestToggleTaskHandler(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	task := storedTask(userID, userID)
	taskStore := &mocks.MockTaskStore{
		GetByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
			return task, nil
		},
	}
	router := newTaskRouter(taskStore, userID)
	path := fmt.Sprintf("/api/tasks/%s/toggle", task.ID)

	w := doJSON(t, router, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Completed)

	w = doJSON(t, router, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Completed)
}
