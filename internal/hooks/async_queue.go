package hooks

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrQueueNotStarted = errors.New("queue not started")
	ErrQueueShutdown   = errors.New("queue shutdown")
)

// AsyncTask is a unit of deferred hook work
type AsyncTask struct {
	Name string
	Fn   func(ctx context.Context) error
}

// AsyncQueue runs post-commit hooks on a fixed pool of workers
type AsyncQueue struct {
	logger      *zap.Logger
	tasks       chan AsyncTask
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	// closing is closed by Shutdown to release blocked senders; tasks is
	// closed only once no sender is left
	closing chan struct{}
	senders sync.WaitGroup

	mu       sync.RWMutex
	started  bool
	shutdown bool
}

// NewAsyncQueue creates a queue with the given number of workers. A nil
// logger discards worker errors.
func NewAsyncQueue(workerCount int, logger *zap.Logger) *AsyncQueue {
	if workerCount <= 0 {
		workerCount = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &AsyncQueue{
		logger:      logger,
		tasks:       make(chan AsyncTask, 100),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		closing:     make(chan struct{}),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *AsyncQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.started = true
}

func (q *AsyncQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			q.run(id, task)
		}
	}
}

func (q *AsyncQueue) run(id int, task AsyncTask) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("async task panicked",
				zap.Int("worker", id),
				zap.String("task", task.Name),
				zap.Any("panic", r),
			)
		}
	}()

	if err := task.Fn(q.ctx); err != nil {
		q.logger.Warn("async task failed",
			zap.Int("worker", id),
			zap.String("task", task.Name),
			zap.Error(err),
		)
	}
}

// Enqueue adds a task, blocking while the buffer is full. A blocked call
// returns ErrQueueShutdown once the queue shuts down.
func (q *AsyncQueue) Enqueue(task AsyncTask) error {
	q.mu.RLock()
	if !q.started {
		q.mu.RUnlock()
		return ErrQueueNotStarted
	}
	if q.shutdown {
		q.mu.RUnlock()
		return ErrQueueShutdown
	}
	q.senders.Add(1)
	q.mu.RUnlock()
	defer q.senders.Done()

	select {
	case q.tasks <- task:
		return nil
	case <-q.closing:
		return ErrQueueShutdown
	case <-q.ctx.Done():
		return ErrQueueShutdown
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish
func (q *AsyncQueue) Shutdown() {
	q.mu.Lock()
	if !q.started || q.shutdown {
		q.mu.Unlock()
		return
	}
	q.shutdown = true
	q.mu.Unlock()

	close(q.closing)
	q.senders.Wait()
	close(q.tasks)
	q.wg.Wait()
}

// Stop cancels running tasks and returns once the workers exit. Queued
// tasks are dropped.
func (q *AsyncQueue) Stop() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}
