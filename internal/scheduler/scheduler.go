package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task interface for scheduled tasks
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler manages scheduled tasks and long-running workers
type Scheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   []Task
	workers []worker
	group   *errgroup.Group
}

type worker struct {
	name string
	fn   func(ctx context.Context) error
}

// New creates a new task scheduler
func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		tasks:  make([]Task, 0),
	}
}

// AddTask adds a periodic task to the scheduler
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// AddWorker adds a function that runs until its context is cancelled.
// A worker returning an error other than cancellation stops the scheduler.
func (s *Scheduler) AddWorker(name string, fn func(ctx context.Context) error) {
	s.workers = append(s.workers, worker{name: name, fn: fn})
}

// Start begins running all tasks and workers
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler")

	group, ctx := errgroup.WithContext(s.ctx)
	s.group = group

	for _, task := range s.tasks {
		group.Go(func() error {
			s.runTask(ctx, task)
			return nil
		})
	}
	for _, w := range s.workers {
		group.Go(func() error {
			err := w.fn(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Worker stopped", "worker", w.name, "error", err)
				return err
			}
			return nil
		})
	}

	slog.Info("Task scheduler started", "task_count", len(s.tasks), "worker_count", len(s.workers))
}

// Stop cancels all tasks and workers and waits for them to return.
// It reports the first worker failure, if any.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping task scheduler")
	s.cancel()
	if s.group == nil {
		return nil
	}
	err := s.group.Wait()
	slog.Info("Task scheduler stopped")
	return err
}

// runTask runs a single task on its schedule
func (s *Scheduler) runTask(ctx context.Context, task Task) {
	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	// Run immediately on start
	if err := task.Run(ctx); err != nil {
		slog.Error("Error running task", "task", task.Name(), "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := task.Run(ctx); err != nil {
				slog.Error("Error running task", "task", task.Name(), "error", err)
			}
		}
	}
}
