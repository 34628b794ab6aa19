package dashclient

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kolboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCacheHitAndExpiry(t *testing.T) {
	var calls atomic.Int32
	pc := newProfileCache(func(_ context.Context, key string) (*models.ProfileCard, error) {
		calls.Add(1)
		return &models.ProfileCard{Username: "dave", FollowerCount: int(calls.Load())}, nil
	}, time.Minute)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	pc.now = func() time.Time { return now }

	card, err := pc.Get(context.Background(), "@Dave")
	require.NoError(t, err)
	assert.Equal(t, 1, card.FollowerCount)

	card, err = pc.Get(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, 1, card.FollowerCount, "same user under another spelling hits the cache")
	assert.EqualValues(t, 1, calls.Load())

	now = now.Add(2 * time.Minute)
	card, err = pc.Get(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, 2, card.FollowerCount)

	pc.Invalidate("@DAVE")
	assert.Equal(t, 0, pc.Len())
}

func TestProfileCacheSharesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	pc := newProfileCache(func(context.Context, string) (*models.ProfileCard, error) {
		calls.Add(1)
		<-release
		return &models.ProfileCard{Username: "erin"}, nil
	}, time.Minute)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			card, err := pc.Get(context.Background(), "erin")
			assert.NoError(t, err)
			assert.Equal(t, "erin", card.Username)
		}()
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, calls.Load())
}

func TestProfileCacheDoesNotCacheErrors(t *testing.T) {
	var calls atomic.Int32
	pc := newProfileCache(func(context.Context, string) (*models.ProfileCard, error) {
		calls.Add(1)
		return nil, errSave
	}, time.Minute)

	_, err := pc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, errSave)
	_, err = pc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, errSave)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 0, pc.Len())
}
