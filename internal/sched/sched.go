// Package sched arms deferred collection continuations on an asynq queue.
// A fixed task ID guarantees at most one pending continuation at a time.
package sched

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenside/golfscout/internal/config"
)

const (
	// TaskTypeContinue is the asynq task type for a deferred continuation.
	TaskTypeContinue = "collect:continue"

	// continueTaskID pins every continuation to one slot. Scheduling while a
	// continuation is pending replaces it instead of stacking a second one.
	continueTaskID = "collect:continue:singleton"

	// Queue is the asynq queue all golfscout tasks go through.
	Queue = "golfscout"
)

// RedisOpt converts the application redis config to asynq's form.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsynqScheduler implements the collector's Scheduler on an asynq queue.
type AsynqScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// New creates a scheduler backed by the configured redis instance.
func New(cfg config.RedisConfig) *AsynqScheduler {
	opt := RedisOpt(cfg)
	return &AsynqScheduler{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

// ScheduleOnce arms one continuation to fire after delay, replacing any
// continuation already pending.
func (s *AsynqScheduler) ScheduleOnce(ctx context.Context, delay time.Duration) error {
	if err := s.deleteContinuation(); err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeContinue, nil)
	info, err := s.client.EnqueueContext(ctx, task,
		asynq.Queue(Queue),
		asynq.TaskID(continueTaskID),
		asynq.ProcessIn(delay),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return eris.Wrap(err, "sched: enqueue continuation")
	}

	zap.L().Debug("continuation enqueued",
		zap.String("task_id", info.ID),
		zap.Duration("delay", delay),
	)
	return nil
}

// CancelAll removes any pending continuation. Already-empty queues are not
// an error.
func (s *AsynqScheduler) CancelAll(_ context.Context) error {
	return s.deleteContinuation()
}

func (s *AsynqScheduler) deleteContinuation() error {
	err := s.inspector.DeleteTask(Queue, continueTaskID)
	if err == nil ||
		errors.Is(err, asynq.ErrTaskNotFound) ||
		errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return eris.Wrap(err, "sched: delete pending continuation")
}

// Close releases the underlying redis connections.
func (s *AsynqScheduler) Close() error {
	if err := s.client.Close(); err != nil {
		return eris.Wrap(err, "sched: close client")
	}
	if err := s.inspector.Close(); err != nil {
		return eris.Wrap(err, "sched: close inspector")
	}
	return nil
}

// Worker consumes continuation tasks and hands them to the collector.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	handler func(ctx context.Context) error
}

// NewWorker creates a worker that invokes handler for every continuation
// task. Concurrency is pinned to one: continuations are strictly serial.
func NewWorker(cfg config.RedisConfig, handler func(ctx context.Context) error) *Worker {
	server := asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency: 1,
		Queues:      map[string]int{Queue: 1},
	})
	w := &Worker{server: server, mux: asynq.NewServeMux(), handler: handler}
	w.mux.HandleFunc(TaskTypeContinue, w.handleContinue)
	return w
}

func (w *Worker) handleContinue(ctx context.Context, _ *asynq.Task) error {
	if err := w.handler(ctx); err != nil {
		// MaxRetry is zero, but SkipRetry keeps the failed task out of the
		// retry set even if that changes.
		return eris.Wrap(errors.Join(err, asynq.SkipRetry), "sched: continuation")
	}
	return nil
}

// Run blocks serving continuation tasks until Shutdown.
func (w *Worker) Run() error {
	if err := w.server.Run(w.mux); err != nil {
		return eris.Wrap(err, "sched: run worker")
	}
	return nil
}

// Shutdown stops the worker, waiting for the in-flight task.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
