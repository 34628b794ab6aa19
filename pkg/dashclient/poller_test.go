package dashclient

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerClampsInterval(t *testing.T) {
	noop := func(context.Context) (int, error) { return 0, nil }
	assert.Equal(t, MinPollInterval, NewPoller(time.Second, noop, func(int) {}).Interval())
	assert.Equal(t, MaxPollInterval, NewPoller(time.Hour, noop, func(int) {}).Interval())
	assert.Equal(t, 5*time.Minute, NewPoller(5*time.Minute, noop, func(int) {}).Interval())
}

func TestPollerDropsStaleResponse(t *testing.T) {
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})
	var calls atomic.Int32

	var mu sync.Mutex
	var applied []string
	p := NewPoller(time.Minute, func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(slowStarted)
			<-releaseSlow
			return "old", nil
		}
		return "new", nil
	}, func(v string) {
		mu.Lock()
		applied = append(applied, v)
		mu.Unlock()
	})

	slowDone := make(chan bool, 1)
	go func() {
		ok, _ := p.Refresh(context.Background())
		slowDone <- ok
	}()
	<-slowStarted

	ok, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	close(releaseSlow)
	assert.False(t, <-slowDone, "older response is dropped")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"new"}, applied)
}

func TestPollerErrorKeepsValue(t *testing.T) {
	var got []error
	applied := 0
	p := NewPoller(time.Minute, func(context.Context) (int, error) { return 0, errSave }, func(int) { applied++ })
	p.OnError = func(err error) { got = append(got, err) }

	ok, err := p.Refresh(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, errSave)
	assert.Equal(t, 0, applied)
	assert.Len(t, got, 1)
}

func TestPollerRunFetchesImmediatelyAndStops(t *testing.T) {
	var applied atomic.Int32
	p := NewPoller(time.Minute, func(context.Context) (int, error) { return 1, nil }, func(int) { applied.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return applied.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
