package server

import (
	"context"
	"sync"
)

const defaultQueueSize = 64

// Queue runs closures one at a time on a single goroutine. Every mutation of
// the peripheral's state happens on it.
type Queue struct {
	work chan func()
	done chan struct{}
	once sync.Once
}

// NewQueue makes a queue buffering up to size pending closures
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Queue{work: make(chan func(), size), done: make(chan struct{})}
}

// Post schedules fn without waiting for it to run
func (q *Queue) Post(fn func()) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.work <- fn:
		return nil
	case <-q.done:
		return ErrQueueClosed
	}
}

// Do schedules fn and waits for its result. It must not be called from the queue itself.
func (q *Queue) Do(fn func() error) error {
	res := make(chan error, 1)
	if err := q.Post(func() { res <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-q.done:
		select {
		case err := <-res:
			return err
		default:
			return ErrQueueClosed
		}
	}
}

// Close shuts the queue; pending and later Post or Do calls fail with ErrQueueClosed
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Run executes posted closures until ctx is cancelled
func (q *Queue) Run(ctx context.Context) error {
	defer q.Close()
	for {
		select {
		case fn := <-q.work:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
