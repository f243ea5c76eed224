package service

import "errors"

// Service-level errors returned to handlers for HTTP status mapping.
var (
	// ErrPermissionDenied indicates the user may see the task but lacks
	// the permission the operation requires, such as a non-creator
	// attempting deletion.
	ErrPermissionDenied = errors.New("permission denied for this task")

	// ErrAssigneeNotFound indicates the requested assignee does not exist.
	ErrAssigneeNotFound = errors.New("assignee not found")
)
