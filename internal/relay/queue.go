package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const taskTimeout = 30 * time.Second

// TaskQueue runs fire-and-forget persistence work on a fixed worker pool.
// Completion order is unspecified; failures are logged, never surfaced.
type TaskQueue struct {
	tasks  chan task
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

type task struct {
	name string
	fn   func(context.Context) error
}

// NewTaskQueue starts workers goroutines draining a buffered queue.
func NewTaskQueue(workers, buffer int, logger *slog.Logger) *TaskQueue {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}
	q := &TaskQueue{
		tasks:  make(chan task, buffer),
		logger: logger.With("component", "relay.tasks"),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *TaskQueue) worker() {
	defer q.wg.Done()
	for t := range q.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		if err := t.fn(ctx); err != nil {
			q.logger.Error("background task failed", "task", t.name, "error", err)
		}
		cancel()
	}
}

// Submit enqueues a task. Returns false when the queue is full or closed;
// the task is dropped and the drop is logged.
func (q *TaskQueue) Submit(name string, fn func(context.Context) error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	select {
	case q.tasks <- task{name: name, fn: fn}:
		return true
	default:
		q.logger.Warn("task queue full, dropping task", "task", name)
		return false
	}
}

// Close stops accepting tasks and waits for in-flight work to finish.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.tasks)
	q.wg.Wait()
}
