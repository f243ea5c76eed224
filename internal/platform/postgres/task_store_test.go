package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/store"
)

func TestBuildTaskListWhere(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name      string
		filter    store.TaskFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no filter",
			filter:    store.TaskFilter{},
			wantWhere: "WHERE (created_by = $1 OR assigned_to = $1)",
			wantArgs:  []any{userID},
		},
		{
			name:      "status filter",
			filter:    store.TaskFilter{Status: domain.StatusPending},
			wantWhere: "WHERE (created_by = $1 OR assigned_to = $1) AND status = $2",
			wantArgs:  []any{userID, domain.StatusPending},
		},
		{
			name:      "priority filter",
			filter:    store.TaskFilter{Priority: domain.PriorityHigh},
			wantWhere: "WHERE (created_by = $1 OR assigned_to = $1) AND priority = $2",
			wantArgs:  []any{userID, domain.PriorityHigh},
		},
		{
			name:      "hide completed",
			filter:    store.TaskFilter{HideCompleted: true},
			wantWhere: "WHERE (created_by = $1 OR assigned_to = $1) AND completed = FALSE",
			wantArgs:  []any{userID},
		},
		{
			name:      "assigned only",
			filter:    store.TaskFilter{AssignedOnly: true},
			wantWhere: "WHERE assigned_to = $1",
			wantArgs:  []any{userID},
		},
		{
			name: "everything combined",
			filter: store.TaskFilter{
				Status:        domain.StatusInProgress,
				Priority:      domain.PriorityLow,
				HideCompleted: true,
				AssignedOnly:  true,
			},
			wantWhere: "WHERE assigned_to = $1 AND status = $2 AND priority = $3 AND completed = FALSE",
			wantArgs:  []any{userID, domain.StatusInProgress, domain.PriorityLow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTaskListWhere(userID, tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
