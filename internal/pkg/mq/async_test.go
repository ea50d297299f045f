package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingPublisher struct {
	release chan struct{}

	mu   sync.Mutex
	keys []string
	err  error
}

func (p *blockingPublisher) PublishJSON(ctx context.Context, key string, _ any) error {
	select {
	case <-p.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func (p *blockingPublisher) delivered() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

func TestAsyncDoesNotWaitForBroker(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{})}
	a := NewAsync(next, 2, time.Minute, nil)

	start := time.Now()
	require.NoError(t, a.PublishJSON(context.Background(), "booking.created", 1))
	require.NoError(t, a.PublishJSON(context.Background(), "booking.updated", 2))
	assert.Less(t, time.Since(start), time.Second)

	close(next.release)
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, []string{"booking.created", "booking.updated"}, next.delivered())

	assert.ErrorIs(t, a.PublishJSON(context.Background(), "booking.cancelled", 3), ErrClosed)
}

func TestAsyncDropsWhenQueueFull(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{})}
	a := NewAsync(next, 1, time.Minute, nil)

	var full bool
	for i := 0; i < 10; i++ {
		if errors.Is(a.PublishJSON(context.Background(), "booking.created", i), ErrQueueFull) {
			full = true
			break
		}
	}
	assert.True(t, full)

	close(next.release)
	require.NoError(t, a.Close(context.Background()))
}

func TestAsyncReportsDeliveryErrors(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{}), err: errors.New("channel closed")}
	close(next.release)

	var (
		mu     sync.Mutex
		failed []string
	)
	a := NewAsync(next, 4, time.Second, func(key string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, key)
	})

	require.NoError(t, a.PublishJSON(context.Background(), "booking.created", 1))
	require.NoError(t, a.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"booking.created"}, failed)
}

func TestAsyncCloseHonoursContext(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{})}
	a := NewAsync(next, 1, time.Minute, nil)
	require.NoError(t, a.PublishJSON(context.Background(), "booking.created", 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Close(ctx), context.DeadlineExceeded)

	close(next.release)
}
