package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasklist-api/internal/config"
	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/events"
	"github.com/phrazzld/tasklist-api/internal/mocks"
)

func overdueTask() *domain.Task {
	past := time.Now().UTC().Add(-time.Hour)
	return &domain.Task{
		ID:         uuid.New(),
		Title:      "Missed deadline",
		Priority:   domain.PriorityMedium,
		Status:     domain.StatusPending,
		Deadline:   &past,
		CreatedBy:  uuid.New(),
		AssignedTo: uuid.New(),
	}
}

func testReminderConfig() config.ReminderConfig {
	return config.ReminderConfig{
		SweepIntervalMinutes: 15,
		WorkerCount:          2,
		QueueSize:            10,
	}
}

func TestSweepEmitsOverdueEvents(t *testing.T) {
	t.Parallel()

	tasks := []*domain.Task{overdueTask(), overdueTask(), overdueTask()}
	taskStore := &mocks.MockTaskStore{
		ListOverdueFn: func(ctx context.Context) ([]*domain.Task, error) {
			return tasks, nil
		},
	}
	emitter := &mocks.MockEventEmitter{}

	sweeper := NewSweeper(taskStore, emitter, testReminderConfig())
	ctx := context.Background()

	require.NoError(t, sweeper.Start(ctx))
	sweeper.Sweep(ctx)
	sweeper.Stop()

	emitted := emitter.Emitted()
	require.Len(t, emitted, len(tasks))
	for _, event := range emitted {
		assert.Equal(t, events.EventTypeTaskOverdue, event.Type)
	}
}

func TestSweepDropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	var tasks []*domain.Task
	for i := 0; i < 5; i++ {
		tasks = append(tasks, overdueTask())
	}
	taskStore := &mocks.MockTaskStore{
		ListOverdueFn: func(ctx context.Context) ([]*domain.Task, error) {
			return tasks, nil
		},
	}
	emitter := &mocks.MockEventEmitter{}

	cfg := testReminderConfig()
	cfg.QueueSize = 2

	// Sweep without starting workers so the queue cannot drain
	sweeper := NewSweeper(taskStore, emitter, cfg)
	sweeper.Sweep(context.Background())

	// Only the queue capacity made it in; the rest were dropped
	assert.Len(t, sweeper.queue, 2)
}

func TestStartTwiceFails(t *testing.T) {
	t.Parallel()

	sweeper := NewSweeper(&mocks.MockTaskStore{}, &mocks.MockEventEmitter{}, testReminderConfig())
	ctx := context.Background()

	require.NoError(t, sweeper.Start(ctx))
	defer sweeper.Stop()

	assert.Error(t, sweeper.Start(ctx))
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	sweeper := NewSweeper(&mocks.MockTaskStore{}, &mocks.MockEventEmitter{}, testReminderConfig())
	assert.NotPanics(t, sweeper.Stop)
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	sweeper := NewSweeper(&mocks.MockTaskStore{}, &mocks.MockEventEmitter{}, config.ReminderConfig{})

	assert.Equal(t, 1, sweeper.workers)
	assert.Equal(t, 15, sweeper.interval)
	assert.Equal(t, 100, cap(sweeper.queue))
}
