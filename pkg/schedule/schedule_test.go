package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler(t *testing.T) {
	s := NewScheduler()
	var n atomic.Int32
	require.NoError(t, s.AddTask(Task{
		Name:     "count",
		Interval: 10 * time.Millisecond,
		Do:       func() { n.Add(1) },
	}))
	assert.ErrorIs(t, s.AddTask(Task{Name: "count", Interval: time.Second}), ErrTaskAdded)
	assert.ErrorIs(t, s.AddTask(Task{Name: "zero"}), ErrInvalidInterval)
	assert.True(t, s.Scheduled("count"))
	assert.False(t, s.Scheduled("zero"))

	s.Start()
	assert.Eventually(t, func() bool { return n.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)
	done := Every(ctx, time.Hour, func() { calls <- struct{}{} })
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("fn was not called immediately")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not exit")
	}
}
