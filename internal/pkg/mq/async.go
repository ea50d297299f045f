package mq

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrQueueFull = errors.New("mq: publish queue full")
	ErrClosed    = errors.New("mq: publisher closed")
)

// JSONPublisher is anything that can send a JSON message under a routing key.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type message struct {
	key string
	v   any
}

// Async queues messages and hands them to next from a single goroutine, so
// callers never wait on the broker. When the queue is full the message is
// dropped and ErrQueueFull returned.
type Async struct {
	next    JSONPublisher
	timeout time.Duration
	onError func(key string, err error)

	mu     sync.RWMutex
	closed bool
	queue  chan message
	done   chan struct{}
}

// NewAsync starts the delivery goroutine. timeout bounds each delivery and
// onError, if set, receives delivery failures.
func NewAsync(next JSONPublisher, size int, timeout time.Duration, onError func(key string, err error)) *Async {
	if size <= 0 {
		size = 1
	}
	a := &Async{
		next:    next,
		timeout: timeout,
		onError: onError,
		queue:   make(chan message, size),
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) PublishJSON(_ context.Context, key string, v any) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- message{key: key, v: v}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) loop() {
	defer close(a.done)
	for m := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.next.PublishJSON(ctx, m.key, m.v)
		cancel()
		if err != nil && a.onError != nil {
			a.onError(m.key, err)
		}
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
// or for ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
