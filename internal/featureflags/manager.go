// Package featureflags gates dashboard features per user.
package featureflags

import (
	"hash/fnv"
	"maps"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Flags the API evaluates itself. Other configured names are passed through
// to the dashboard untouched.
const (
	NotificationStream = "notification_stream"
	Leaderboard        = "leaderboard"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "notification_stream=on,leaderboard=25%,kol_alerts=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic user rollout, e.g. 25%)
func (m *Manager) Enabled(name string, userID uuid.UUID) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	// Anonymous viewers never fall into a partial rollout.
	if userID == uuid.Nil {
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// EnabledOrDefault is Enabled for flags that are on unless configured otherwise.
func (m *Manager) EnabledOrDefault(name string, userID uuid.UUID) bool {
	if m == nil {
		return true
	}
	if _, ok := m.flags[normalize(name)]; !ok {
		return true
	}
	return m.Enabled(name, userID)
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.flags)
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uuid.UUID) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + userID.String()))
	return int(h.Sum32() % 100)
}
