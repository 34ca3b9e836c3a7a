package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	p := New()
	defer p.Close()

	p.Register("double", func(ctx context.Context, arg any) (any, error) {
		return arg.(int) * 2, nil
	})

	reply, err := p.Submit(context.Background(), "double", 21)
	require.NoError(t, err)

	res := <-reply
	require.NoError(t, res.Err)
	assert.Equal(t, 42, res.Value)

	// The reply channel is single-use and closed after delivery.
	_, open := <-reply
	assert.False(t, open)
}

func TestUnknownQuery(t *testing.T) {
	p := New()
	defer p.Close()

	reply, err := p.Submit(context.Background(), "nope", nil)
	require.NoError(t, err)

	res := <-reply
	var uq *ErrUnknownQuery
	require.ErrorAs(t, res.Err, &uq)
	assert.Equal(t, "nope", uq.Name)
}

func TestContinuation(t *testing.T) {
	p := New()
	defer p.Close()

	p.Register("staged", func(ctx context.Context, arg any) (any, error) {
		// The handler schedules its second stage on the continuation
		// queue and waits for it, proving a worker is free to pick it up
		// while this one blocks.
		reply, err := p.Continue(ctx, func(ctx context.Context) (any, error) {
			return arg.(int) + 1, nil
		})
		if err != nil {
			return nil, err
		}
		res := <-reply
		return res.Value, res.Err
	})

	reply, err := p.Submit(context.Background(), "staged", 1)
	require.NoError(t, err)

	res := <-reply
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Value)
}

func TestQueueInterleaving(t *testing.T) {
	p := New(func(o *Options) {
		o.Workers = 2
		o.QueueDepth = 64
	})
	defer p.Close()

	var mu sync.Mutex
	ran := 0
	p.Register("work", func(ctx context.Context, arg any) (any, error) {
		mu.Lock()
		ran++
		mu.Unlock()
		return nil, nil
	})

	// Saturate the primary queue, then interleave continuations; both
	// kinds must all complete.
	var replies []<-chan Result
	for i := 0; i < 32; i++ {
		r, err := p.Submit(context.Background(), "work", i)
		require.NoError(t, err)
		replies = append(replies, r)
		r, err = p.Continue(context.Background(), func(ctx context.Context) (any, error) {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil, nil
		})
		require.NoError(t, err)
		replies = append(replies, r)
	}
	for _, r := range replies {
		res := <-r
		require.NoError(t, res.Err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 64, ran)
}

func TestSubmitAfterClose(t *testing.T) {
	p := New()
	require.NoError(t, p.Close())

	_, err := p.Submit(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrPoolClosed)

	// Close is idempotent.
	assert.NoError(t, p.Close())
}

func TestCloseDeliversPending(t *testing.T) {
	p := New(func(o *Options) {
		o.Workers = 1
		o.QueueDepth = 2
	})

	block := make(chan struct{})
	p.Register("block", func(ctx context.Context, arg any) (any, error) {
		<-block
		return nil, nil
	})
	p.Register("noop", func(ctx context.Context, arg any) (any, error) {
		return nil, nil
	})

	// Occupy the only worker, then fill the primary buffer behind it.
	busy, err := p.Submit(context.Background(), "block", nil)
	require.NoError(t, err)
	var queued []<-chan Result
	for i := 0; i < 2; i++ {
		r, err := p.Submit(context.Background(), "noop", nil)
		require.NoError(t, err)
		queued = append(queued, r)
	}

	done := make(chan error, 1)
	go func() { done <- p.Close() }()
	close(block)
	require.NoError(t, <-done)

	res := <-busy
	require.NoError(t, res.Err)

	// Every buffered task gets its Result: it either ran before the worker
	// saw the cancellation or was drained with ErrPoolClosed.
	for _, r := range queued {
		res, ok := <-r
		require.True(t, ok)
		if res.Err != nil {
			assert.ErrorIs(t, res.Err, ErrPoolClosed)
		}
	}
}

func TestSubmitCloseRace(t *testing.T) {
	for i := 0; i < 25; i++ {
		p := New(func(o *Options) {
			o.Workers = 2
			o.QueueDepth = 2
		})
		p.Register("noop", func(ctx context.Context, arg any) (any, error) {
			return nil, nil
		})

		var wg sync.WaitGroup
		replies := make(chan (<-chan Result), 8)
		for j := 0; j < 8; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := p.Submit(context.Background(), "noop", nil)
				if err != nil {
					assert.ErrorIs(t, err, ErrPoolClosed)
					return
				}
				replies <- r
			}()
		}
		go func() { _ = p.Close() }()
		wg.Wait()
		_ = p.Close()
		close(replies)

		// An accepted submission must never be stranded, however the
		// submit interleaved with Close.
		for r := range replies {
			res, ok := <-r
			require.True(t, ok)
			if res.Err != nil {
				assert.ErrorIs(t, res.Err, ErrPoolClosed)
			}
		}
	}
}

func TestContextCancellation(t *testing.T) {
	p := New(func(o *Options) { o.Workers = 1 })
	defer p.Close()

	block := make(chan struct{})
	p.Register("block", func(ctx context.Context, arg any) (any, error) {
		<-block
		return nil, nil
	})
	p.Register("fast", func(ctx context.Context, arg any) (any, error) {
		return nil, nil
	})

	// Occupy the only worker.
	busy, err := p.Submit(context.Background(), "block", nil)
	require.NoError(t, err)

	// A queued task whose context expires is delivered a context error.
	ctx, cancel := context.WithCancel(context.Background())
	queued, err := p.Submit(ctx, "fast", nil)
	require.NoError(t, err)
	cancel()
	close(block)

	res := <-queued
	if res.Err != nil {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
	select {
	case <-busy:
	case <-time.After(5 * time.Second):
		t.Fatal("blocked handler never finished")
	}
}
