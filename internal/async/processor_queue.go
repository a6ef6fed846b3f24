package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/core"
)

// FileEvaluator is the part of core.Processor the queue drives.
type FileEvaluator interface {
	EvaluateFile(ctx context.Context, path string) (core.Result, error)
}

// ResultHandler receives every finished job. It is called from worker
// goroutines and must be safe for concurrent use.
type ResultHandler func(job Job, res core.Result, err error)

type ProcessorQueue struct {
	proc     FileEvaluator
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult ResultHandler

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithResultHandler(h ResultHandler) Option {
	return func(q *ProcessorQueue) {
		q.onResult = h
	}
}

func NewProcessorQueue(proc FileEvaluator, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	res, err := q.proc.EvaluateFile(ctx, job.Path)
	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "path", job.Path, "req_id", job.TraceID, "error", err)
	} else {
		q.logger.Info("queue.job.ok",
			"worker_id", workerID,
			"path", job.Path,
			"req_id", job.TraceID,
			"wait_ms", time.Since(job.SubmittedAt).Milliseconds(),
		)
	}
	if q.onResult != nil {
		q.onResult(job, res, err)
	}
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", job.Path)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueued", "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue.full", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.drained")
	}
}
