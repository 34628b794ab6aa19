package service

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"kolboard/internal/models"
)

// TrendingScore is a placeholder score in [0, 100) until the upstream ships a
// real one. It is stable for a KOL within one UTC day so paging does not reshuffle.
func TrendingScore(platform, kolID string, at time.Time) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(platform))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(kolID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(at.UTC().Format(time.DateOnly)))

	rng := rand.New(rand.NewPCG(h.Sum64(), 0x6b6f6c))
	return round1(rng.Float64() * 100)
}

// InfluenceScore is a placeholder heuristic in [0, 100] from reach, activity
// and verification.
func InfluenceScore(p models.KOLProfile) float64 {
	followers := float64(p.FollowersCount)
	if followers < 0 {
		followers = 0
	}
	reach := 40 * math.Log10(1+followers) / 7
	activity := 30 * math.Min(1, float64(max(p.PostsCount, 0))/1000)
	verified := 0.0
	if p.Verified {
		verified = 30
	}
	return round1(math.Min(100, reach+activity+verified))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
