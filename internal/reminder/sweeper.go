// Package reminder implements the periodic overdue-task sweep. A cron
// schedule scans the store for tasks whose deadline has passed without
// completion and hands each one to a bounded worker pool that emits a
// task.overdue event for the assignee.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/phrazzld/tasklist-api/internal/config"
	"github.com/phrazzld/tasklist-api/internal/domain"
	"github.com/phrazzld/tasklist-api/internal/events"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/store"
)

// Sweeper runs the overdue-task sweep on a fixed interval.
type Sweeper struct {
	taskStore store.TaskStore
	emitter   events.EventEmitter
	cron      *cron.Cron
	queue     chan *domain.Task
	workers   int
	interval  int
	log       *slog.Logger

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// NewSweeper creates a Sweeper from configuration. It does not start any
// background work; call Start.
func NewSweeper(taskStore store.TaskStore, emitter events.EventEmitter, cfg config.ReminderConfig) *Sweeper {
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 100
	}
	interval := cfg.SweepIntervalMinutes
	if interval < 1 {
		interval = 15
	}

	return &Sweeper{
		taskStore: taskStore,
		emitter:   emitter,
		cron:      cron.New(),
		queue:     make(chan *domain.Task, queueSize),
		workers:   workers,
		interval:  interval,
	}
}

// Start launches the worker pool and schedules the sweep. The given context
// is used for store queries and event emission until Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("sweeper already started")
	}

	s.log = logger.FromContext(ctx).With("component", "reminder")

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	schedule := fmt.Sprintf("@every %dm", s.interval)
	if _, err := s.cron.AddFunc(schedule, func() {
		s.Sweep(ctx)
	}); err != nil {
		close(s.queue)
		s.wg.Wait()
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	s.cron.Start()
	s.started = true

	s.log.Info("reminder sweeper started",
		"interval_minutes", s.interval,
		"workers", s.workers,
		"queue_size", cap(s.queue))

	return nil
}

// Stop halts the schedule, drains the queue, and waits for the workers to
// finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	// Wait for an in-flight sweep before closing the queue it feeds.
	<-s.cron.Stop().Done()
	close(s.queue)
	s.wg.Wait()
	s.started = false
}

// Sweep performs one scan for overdue tasks, enqueueing each for the
// workers. When the queue is full the remaining tasks are dropped with a
// warning; they will be picked up again on the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) {
	// The cron fires with a bare background context, so fall back to the
	// sweeper's component logger rather than the global default.
	log := logger.FromContextOrDefault(ctx, s.log)

	tasks, err := s.taskStore.ListOverdue(ctx)
	if err != nil {
		log.Error("reminder sweep failed to list overdue tasks", "error", err)
		return
	}

	enqueued, dropped := 0, 0
	for _, task := range tasks {
		select {
		case s.queue <- task:
			enqueued++
		default:
			dropped++
		}
	}

	if dropped > 0 {
		log.Warn("reminder queue full, dropping overdue tasks until next sweep",
			"dropped", dropped,
			"enqueued", enqueued)
	}

	log.Debug("reminder sweep complete",
		"overdue", len(tasks),
		"enqueued", enqueued)
}

// worker consumes overdue tasks and emits a task.overdue event for each.
func (s *Sweeper) worker(ctx context.Context) {
	defer s.wg.Done()

	log := logger.FromContextOrDefault(ctx, s.log)
	for task := range s.queue {
		event := events.NewTaskEvent(events.EventTypeTaskOverdue, task.ID, task.AssignedTo, nil)
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			log.Warn("failed to emit overdue event",
				"error", err,
				"task_id", task.ID)
		}
	}
}
