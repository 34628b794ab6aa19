package dashclient

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrInFlight is returned by Flip while a previous flip is still waiting on the server.
var ErrInFlight = errors.New("dashclient: toggle request already in flight")

// ToggleFunc persists the new state of a toggle.
type ToggleFunc func(ctx context.Context, on bool) error

// Toggle is an optimistic two-state control with an attached counter, such as
// follow/follower_count or track/tracker_count.
type Toggle struct {
	mu       sync.Mutex
	on       bool
	count    int
	inFlight bool
	persist  ToggleFunc
}

func NewToggle(on bool, count int, persist ToggleFunc) *Toggle {
	return &Toggle{on: on, count: max(0, count), persist: persist}
}

// State returns the displayed value, counter and whether a request is pending.
func (t *Toggle) State() (on bool, count int, pending bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.on, t.count, t.inFlight
}

// Flip applies the change locally, persists it, and reverts both fields when
// persisting fails.
func (t *Toggle) Flip(ctx context.Context) error {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return ErrInFlight
	}
	prevOn, prevCount := t.on, t.count
	t.on = !t.on
	if t.on {
		t.count++
	} else {
		t.count = max(0, t.count-1)
	}
	next := t.on
	t.inFlight = true
	t.mu.Unlock()

	err := t.persist(ctx, next)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight = false
	if err != nil {
		t.on, t.count = prevOn, prevCount
	}
	return err
}

// FollowToggle wires a Toggle to the follow endpoints for userID.
func (c *Client) FollowToggle(userID uuid.UUID, following bool, followers int) *Toggle {
	return NewToggle(following, followers, func(ctx context.Context, on bool) error {
		var err error
		if on {
			_, err = c.Follow(ctx, userID)
		} else {
			_, err = c.Unfollow(ctx, userID)
		}
		return err
	})
}

// KOLToggle wires a Toggle to the KOL tracking endpoints.
func (c *Client) KOLToggle(ref TrackKOLRequest, tracked bool, trackers int) *Toggle {
	return NewToggle(tracked, trackers, func(ctx context.Context, on bool) error {
		var err error
		if on {
			_, err = c.TrackKOL(ctx, ref)
		} else {
			_, err = c.UntrackKOL(ctx, ref.Platform, ref.KOLID)
		}
		return err
	})
}

// StockToggle wires a Toggle to the stock watchlist. Its counter is unused.
func (c *Client) StockToggle(ref TrackStockRequest, tracked bool) *Toggle {
	return NewToggle(tracked, 0, func(ctx context.Context, on bool) error {
		var err error
		if on {
			_, err = c.TrackStock(ctx, ref)
		} else {
			_, err = c.UntrackStock(ctx, ref.Symbol)
		}
		return err
	})
}
