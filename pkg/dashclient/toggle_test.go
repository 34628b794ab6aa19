package dashclient

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"kolboard/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSave = errors.New("save failed")

func TestToggleFlip(t *testing.T) {
	var calls []bool
	toggle := NewToggle(false, 3, func(_ context.Context, on bool) error {
		calls = append(calls, on)
		return nil
	})

	require.NoError(t, toggle.Flip(context.Background()))
	on, count, pending := toggle.State()
	assert.True(t, on)
	assert.Equal(t, 4, count)
	assert.False(t, pending)

	require.NoError(t, toggle.Flip(context.Background()))
	on, count, _ = toggle.State()
	assert.False(t, on)
	assert.Equal(t, 3, count)
	assert.Equal(t, []bool{true, false}, calls)
}

func TestToggleCounterNeverNegative(t *testing.T) {
	tests := []struct {
		name  string
		on    bool
		count int
	}{
		{"off with 0", false, 0},
		{"off with 1", false, 1},
		{"off with 2", false, 2},
		{"off with 100", false, 100},
		{"on with 0", true, 0},
		{"on with 1", true, 1},
		{"on with 2", true, 2},
		{"on with 100", true, 100},
		{"negative start is floored", true, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toggle := NewToggle(tt.on, tt.count, func(context.Context, bool) error { return nil })
			start := max(0, tt.count)
			want := start

			for i := 0; i < 4; i++ {
				require.NoError(t, toggle.Flip(context.Background()))
				on, count, pending := toggle.State()
				if on {
					want++
				} else {
					want = max(0, want-1)
				}
				assert.Equal(t, tt.on != (i%2 == 0), on, "flip %d alternates", i)
				assert.GreaterOrEqual(t, count, 0)
				assert.Equal(t, want, count, "flip %d", i)
				assert.False(t, pending)
			}

			_, count, _ := toggle.State()
			if tt.on && start == 0 {
				assert.Equal(t, 1, count, "floored decrement is not undone")
			} else {
				assert.Equal(t, start, count)
			}
		})
	}
}

func TestKOLToggleUntrackAlreadyUntracked(t *testing.T) {
	var deletes atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/tracked-kols/twitter/ghost", r.URL.Path)
		deletes.Add(1)
		writeJSON(w, http.StatusOK, models.TrackStatus{Tracked: false, TrackerCount: 0})
	})

	// The local view still thinks the KOL is tracked, the server already forgot it.
	toggle := c.KOLToggle(TrackKOLRequest{Platform: "twitter", KOLID: "ghost"}, true, 0)
	require.NoError(t, toggle.Flip(context.Background()))

	on, count, pending := toggle.State()
	assert.False(t, on)
	assert.Equal(t, 0, count)
	assert.False(t, pending)
	assert.EqualValues(t, 1, deletes.Load())
}

func TestToggleRevertsOnError(t *testing.T) {
	toggle := NewToggle(true, 10, func(context.Context, bool) error { return errSave })

	err := toggle.Flip(context.Background())
	assert.ErrorIs(t, err, errSave)
	on, count, pending := toggle.State()
	assert.True(t, on)
	assert.Equal(t, 10, count)
	assert.False(t, pending)
}

func TestToggleRefusesWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	toggle := NewToggle(false, 1, func(context.Context, bool) error {
		close(started)
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- toggle.Flip(context.Background()) }()
	<-started

	on, count, pending := toggle.State()
	assert.True(t, on, "optimistic value is visible while pending")
	assert.Equal(t, 2, count)
	assert.True(t, pending)
	assert.ErrorIs(t, toggle.Flip(context.Background()), ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	on, count, _ = toggle.State()
	assert.True(t, on)
	assert.Equal(t, 2, count)
}

func TestFollowToggleCallsEndpoints(t *testing.T) {
	target := uuid.New()
	var posts, deletes atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			posts.Add(1)
			writeJSON(w, http.StatusOK, models.FollowStatus{IsFollowing: true, FollowerCount: 1})
		case http.MethodDelete:
			deletes.Add(1)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
		}
	})

	toggle := c.FollowToggle(target, false, 0)
	require.NoError(t, toggle.Flip(context.Background()))
	assert.Error(t, toggle.Flip(context.Background()))

	on, count, _ := toggle.State()
	assert.True(t, on, "failed unfollow reverts to following")
	assert.Equal(t, 1, count)
	assert.EqualValues(t, 1, posts.Load())
	assert.EqualValues(t, 1, deletes.Load())
}
