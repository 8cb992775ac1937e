package net

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

var errWorkerFailed = errors.New("worker failed")

func TestWorkerPool_ProcessesAllTasks(t *testing.T) {
	pool := NewWorkerPool(4)
	var processed int64

	tb, _ := tomb.WithContext(context.Background())
	pool.Setup(tb, func(_ *tomb.Tomb, task any) error {
		atomic.AddInt64(&processed, 1)
		return nil
	})

	for i := 0; i < 20; i++ {
		pool.AddTask(i)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == 20
	}, time.Second, 5*time.Millisecond)

	tb.Kill(nil)
	assert.NoError(t, tb.Wait())
}

func TestWorkerPool_WorkerErrorDoesNotStopPool(t *testing.T) {
	pool := NewWorkerPool(2)
	var processed int64

	tb, _ := tomb.WithContext(context.Background())
	pool.Setup(tb, func(_ *tomb.Tomb, task any) error {
		atomic.AddInt64(&processed, 1)
		if task == "bad" {
			return errWorkerFailed
		}
		return nil
	})

	pool.AddTask("bad")
	pool.AddTask("good")

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == 2
	}, time.Second, 5*time.Millisecond)

	tb.Kill(nil)
	assert.NoError(t, tb.Wait())
}
