package hooks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAsyncQueue_StartStop(t *testing.T) {
	queue := NewAsyncQueue(2, nil)
	queue.Start()

	executed := make(chan bool, 1)
	err := queue.Enqueue(AsyncTask{
		Name: "test-task",
		Fn: func(ctx context.Context) error {
			executed <- true
			return nil
		},
	})
	require.NoError(t, err)

	select {
	case <-executed:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not execute within timeout")
	}

	queue.Shutdown()
}

func TestAsyncQueue_MultipleWorkers(t *testing.T) {
	queue := NewAsyncQueue(4, nil)
	queue.Start()
	defer queue.Shutdown()

	const taskCount = 20
	var executed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(taskCount)

	for i := 0; i < taskCount; i++ {
		err := queue.Enqueue(AsyncTask{
			Name: "concurrent-task",
			Fn: func(ctx context.Context) error {
				defer wg.Done()
				executed.Add(1)
				time.Sleep(5 * time.Millisecond)
				return nil
			},
		})
		require.NoError(t, err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, int32(taskCount), executed.Load())
	case <-time.After(5 * time.Second):
		t.Fatalf("only %d of %d tasks executed", executed.Load(), taskCount)
	}
}

func TestAsyncQueue_EnqueueBeforeStart(t *testing.T) {
	queue := NewAsyncQueue(1, nil)
	err := queue.Enqueue(AsyncTask{Name: "early", Fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueNotStarted)
}

func TestAsyncQueue_EnqueueAfterShutdown(t *testing.T) {
	queue := NewAsyncQueue(1, nil)
	queue.Start()
	queue.Shutdown()

	err := queue.Enqueue(AsyncTask{Name: "late", Fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueShutdown)

	// a second shutdown is harmless
	queue.Shutdown()
}

func TestAsyncQueue_ShutdownDrains(t *testing.T) {
	queue := NewAsyncQueue(1, nil)
	queue.Start()

	var executed atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, queue.Enqueue(AsyncTask{
			Name: "drain",
			Fn: func(context.Context) error {
				executed.Add(1)
				return nil
			},
		}))
	}

	queue.Shutdown()
	assert.Equal(t, int32(10), executed.Load())
}

func TestAsyncQueue_ShutdownReleasesBlockedEnqueue(t *testing.T) {
	queue := NewAsyncQueue(1, nil)
	queue.Start()

	running := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, queue.Enqueue(AsyncTask{Name: "blocker", Fn: func(context.Context) error {
		close(running)
		<-release
		return nil
	}}))
	<-running

	var executed atomic.Int32
	for i := 0; i < cap(queue.tasks); i++ {
		require.NoError(t, queue.Enqueue(AsyncTask{Name: "filler", Fn: func(context.Context) error {
			executed.Add(1)
			return nil
		}}))
	}

	blocked := make(chan error, 1)
	go func() {
		blocked <- queue.Enqueue(AsyncTask{Name: "overflow", Fn: func(context.Context) error { return nil }})
	}()

	done := make(chan struct{})
	go func() {
		queue.Shutdown()
		close(done)
	}()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrQueueShutdown)
	case <-time.After(time.Second):
		t.Fatal("enqueue on a full queue was not released by shutdown")
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not finish")
	}
	assert.Equal(t, int32(cap(queue.tasks)), executed.Load())
}

func TestAsyncQueue_StopCancelsContext(t *testing.T) {
	queue := NewAsyncQueue(1, nil)
	queue.Start()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	require.NoError(t, queue.Enqueue(AsyncTask{
		Name: "long",
		Fn: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		},
	}))

	<-started
	queue.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatal("running task was not cancelled")
	}

	err := queue.Enqueue(AsyncTask{Name: "after-stop", Fn: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueShutdown)
}

func TestAsyncQueue_LogsFailuresAndPanics(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	queue := NewAsyncQueue(1, zap.New(core))
	queue.Start()

	require.NoError(t, queue.Enqueue(AsyncTask{
		Name: "failing",
		Fn:   func(context.Context) error { return errors.New("boom") },
	}))
	require.NoError(t, queue.Enqueue(AsyncTask{
		Name: "panicking",
		Fn:   func(context.Context) error { panic("kaboom") },
	}))

	var after atomic.Bool
	require.NoError(t, queue.Enqueue(AsyncTask{
		Name: "after",
		Fn: func(context.Context) error {
			after.Store(true)
			return nil
		},
	}))
	queue.Shutdown()

	assert.True(t, after.Load(), "the worker survives a panic")
	assert.Equal(t, 1, logs.FilterMessage("async task failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("async task panicked").Len())
}
