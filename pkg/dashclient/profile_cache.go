package dashclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"kolboard/internal/models"

	"golang.org/x/sync/singleflight"
)

const DefaultProfileTTL = 5 * time.Minute

type cachedProfile struct {
	card    *models.ProfileCard
	expires time.Time
}

// ProfileCache keeps hover-card profiles in memory. Concurrent misses for the
// same user share one request. Failed lookups are not cached.
type ProfileCache struct {
	fetch func(ctx context.Context, idOrUsername string) (*models.ProfileCard, error)
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedProfile
	group   singleflight.Group
}

func NewProfileCache(c *Client, ttl time.Duration) *ProfileCache {
	return newProfileCache(c.ProfileCard, ttl)
}

func newProfileCache(fetch func(context.Context, string) (*models.ProfileCard, error), ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &ProfileCache{
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedProfile),
	}
}

func profileKey(idOrUsername string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(idOrUsername), "@"))
}

func (pc *ProfileCache) Get(ctx context.Context, idOrUsername string) (*models.ProfileCard, error) {
	key := profileKey(idOrUsername)

	pc.mu.RLock()
	entry, ok := pc.entries[key]
	pc.mu.RUnlock()
	if ok && pc.now().Before(entry.expires) {
		return entry.card, nil
	}

	v, err, _ := pc.group.Do(key, func() (any, error) {
		card, err := pc.fetch(ctx, idOrUsername)
		if err != nil {
			return nil, err
		}
		pc.mu.Lock()
		pc.entries[key] = cachedProfile{card: card, expires: pc.now().Add(pc.ttl)}
		pc.mu.Unlock()
		return card, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ProfileCard), nil
}

// Invalidate drops one user, e.g. after following them changed their counters.
func (pc *ProfileCache) Invalidate(idOrUsername string) {
	pc.mu.Lock()
	delete(pc.entries, profileKey(idOrUsername))
	pc.mu.Unlock()
}

func (pc *ProfileCache) Len() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.entries)
}
