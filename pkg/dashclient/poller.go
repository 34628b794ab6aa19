package dashclient

import (
	"context"
	"sync"
	"time"
)

const (
	MinPollInterval = time.Minute
	MaxPollInterval = 15 * time.Minute
)

// Poller refreshes a value on a fixed interval. Every fetch is numbered and a
// result older than the last applied one is dropped, so a slow response can
// never overwrite a newer one.
type Poller[T any] struct {
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	apply    func(T)

	// OnError, when set, receives fetch failures. The last applied value is kept.
	OnError func(error)

	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// NewPoller clamps interval to [MinPollInterval, MaxPollInterval].
func NewPoller[T any](interval time.Duration, fetch func(ctx context.Context) (T, error), apply func(T)) *Poller[T] {
	return &Poller[T]{
		interval: min(max(interval, MinPollInterval), MaxPollInterval),
		fetch:    fetch,
		apply:    apply,
	}
}

func (p *Poller[T]) Interval() time.Duration {
	return p.interval
}

// Refresh fetches once and applies the result unless a newer fetch already landed.
// It reports whether the result was applied.
func (p *Poller[T]) Refresh(ctx context.Context) (bool, error) {
	p.mu.Lock()
	p.issued++
	seq := p.issued
	p.mu.Unlock()

	v, err := p.fetch(ctx)
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq <= p.applied {
		return false, nil
	}
	p.applied = seq
	p.apply(v)
	return true, nil
}

// Run fetches immediately and then on every tick until ctx is done. Ticks do
// not wait for a slow fetch to finish.
func (p *Poller[T]) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Refresh(ctx)
		}()
	}

	tick()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
