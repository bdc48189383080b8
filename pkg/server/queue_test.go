package server

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"gotest.tools/assert"
)

func TestQueueRunsInOrder(t *testing.T) {
	q := NewQueue(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- q.Run(ctx) }()
	got := []int{}
	for i := 0; i < 10; i++ {
		i := i
		assert.NilError(t, q.Post(func() { got = append(got, i) }))
	}
	err := q.Do(func() error { return nil })
	assert.NilError(t, err)
	assert.DeepEqual(t, got, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	cancel()
	assert.Equal(t, <-done, context.Canceled)
}

func TestQueueDoReturnsResult(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)
	expected := errors.New("from the queue")
	assert.Equal(t, q.Do(func() error { return expected }), expected)
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, q.Run(ctx), context.Canceled)
	assert.Equal(t, q.Post(func() {}), ErrQueueClosed)
	assert.Equal(t, q.Do(func() error { return nil }), ErrQueueClosed)
}

func TestQueueCloseWithoutRun(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	q.Close()
	assert.Equal(t, q.Post(func() {}), ErrQueueClosed)
	assert.Equal(t, q.Do(func() error { return nil }), ErrQueueClosed)
}
