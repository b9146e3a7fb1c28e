package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one path waiting to be ingested.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

// Queue fans ingest jobs out to a fixed pool of workers. Enqueue blocks when
// the buffer is full, which gives natural backpressure to producers such as
// the directory watcher.
type Queue struct {
	ing     *Ingestor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(ing *Ingestor, logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		ing:     ing,
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

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("ingest worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res, err := q.ing.IngestPath(ctx, job.Path)
					cancel()

					if err != nil {
						q.logger.Error("ingest failed", "worker_id", workerID, "path", job.Path, "error", err)
					} else if res.Deduplicated {
						q.logger.Info("ingest deduplicated", "worker_id", workerID, "path", job.Path, "id", res.DocumentID)
					} else {
						q.logger.Info("ingest done", "worker_id", workerID, "path", job.Path, "id", res.DocumentID)
					}
				}

				q.logger.Info("ingest worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Shutdown stops accepting jobs and waits for the workers to drain, or for
// ctx to expire, whichever comes first.
func (q *Queue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("queue shutdown interrupted")
	case <-done:
		q.logger.Info("queue drained")
	}
}
