package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
// Logout accepts the same payload.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token
// refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"omitempty"`
	Deadline    *time.Time `json:"deadline"    validate:"omitempty"`
	Priority    string     `json:"priority"    validate:"omitempty,oneof=low medium high"`
	AssignedTo  *uuid.UUID `json:"assigned_to" validate:"omitempty"`
}

// UpdateTaskRequest defines the full-replacement payload for updating a
// task. Omitting the assignee reassigns the task to the requesting user.
type UpdateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description" validate:"omitempty"`
	Deadline    *time.Time `json:"deadline"    validate:"omitempty"`
	Priority    string     `json:"priority"    validate:"required,oneof=low medium high"`
	Status      string     `json:"status"      validate:"required,oneof=pending in_progress completed"`
	AssignedTo  *uuid.UUID `json:"assigned_to" validate:"omitempty"`
}

// TaskResponse is the API representation of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	AssignedTo  uuid.UUID  `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	IsOverdue   bool       `json:"is_overdue"`

	// DaysUntilDeadline is the number of whole days until the deadline,
	// negative once it has passed. Omitted for tasks without a deadline.
	DaysUntilDeadline *int `json:"days_until_deadline,omitempty"`
}

// NewTaskResponse converts a domain task to its API representation.
func NewTaskResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Deadline:    task.Deadline,
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		Completed:   task.Completed,
		CompletedAt: task.CompletedAt,
		CreatedBy:   task.CreatedBy,
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		IsOverdue:   task.IsOverdue(),
	}
	if days, ok := task.DaysUntilDeadline(); ok {
		resp.DaysUntilDeadline = &days
	}
	return resp
}

// TaskListResponse is one page of tasks plus the counts the list view shows.
type TaskListResponse struct {
	Tasks        []TaskResponse `json:"tasks"`
	TotalCount   int            `json:"total_count"`
	OverdueCount int            `json:"overdue_count"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
}

// NewTaskListResponse converts a store page to its API representation.
func NewTaskListResponse(page *store.TaskPage) TaskListResponse {
	tasks := make([]TaskResponse, 0, len(page.Tasks))
	for _, task := range page.Tasks {
		tasks = append(tasks, NewTaskResponse(task))
	}
	return TaskListResponse{
		Tasks:        tasks,
		TotalCount:   page.TotalCount,
		OverdueCount: page.OverdueCount,
		Page:         page.Page,
		PageSize:     page.PageSize,
	}
}
