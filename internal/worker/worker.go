// Package worker runs periodic maintenance tasks in the background.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/metrics"
)

// Worker runs each registered task on its own goroutine at a fixed interval.
type Worker struct {
	tasks  []Task
	config Config
	logger *slog.Logger

	// Synchronization
	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

// New creates a new Worker with the given configuration.
// The worker must be started with Start() and stopped with Stop().
func New(config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Worker{
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Register adds a task to the worker. Call this before Start().
func (w *Worker) Register(task Task) {
	for _, t := range w.tasks {
		if t.Name() == task.Name() {
			w.logger.Warn("Task registered twice", "task", task.Name())
		}
	}
	w.tasks = append(w.tasks, task)
	w.logger.Debug("Registered task", "task", task.Name())
}

// Start runs every task once immediately and then on each interval tick.
func (w *Worker) Start(ctx context.Context) {
	for _, task := range w.tasks {
		w.wg.Add(1)
		go w.runTask(ctx, task)
	}

	w.logger.Info("Worker started", "tasks", len(w.tasks), "interval", w.config.Interval)
}

// Stop signals all tasks to stop and waits for them to finish.
// It respects the configured ShutdownTimeout.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.once.Do(func() { close(w.stopCh) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped gracefully")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timeout exceeded, some tasks may still be running")
	}
}

// runTask is the loop for one task goroutine.
func (w *Worker) runTask(ctx context.Context, task Task) {
	defer w.wg.Done()

	logger := w.logger.With("task", task.Name())

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		if err := w.execute(ctx, task); err != nil {
			if IsPermanent(err) {
				logger.Error("Task failed permanently, not rescheduling", "error", err)
				return
			}
			logger.Error("Task failed", "error", err)
		}

		select {
		case <-w.stopCh:
			logger.Debug("Task loop stopping")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// execute runs a single pass of task with the configured timeout.
func (w *Worker) execute(ctx context.Context, task Task) (err error) {
	taskCtx, cancel := context.WithTimeout(ctx, w.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.TaskRun(task.Name(), time.Since(start), err)
	}()

	// Cancel the run if Stop is called mid-pass
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-taskCtx.Done():
		}
	}()

	return task.Run(taskCtx)
}
