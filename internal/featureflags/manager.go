// Package featureflags evaluates runtime feature flags with deterministic
// per-group rollout.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// BadgeEvents gates realtime badge award notifications.
const BadgeEvents = "badge_events"

// rule is one parsed flag value. percent is 0..100; on and off are stored as
// 100 and 0 so Enabled has a single code path.
type rule struct {
	raw     string
	percent int
	rollout bool
}

func parseRule(value string) (rule, bool) {
	r := rule{raw: value}
	switch value {
	case "on", "true", "1":
		r.percent = 100
		return r, true
	case "off", "false", "0":
		return r, true
	}
	pct, ok := strings.CutSuffix(value, "%")
	if !ok {
		return r, false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return r, false
	}
	r.percent = min(max(n, 0), 100)
	r.rollout = r.percent > 0 && r.percent < 100
	return r, true
}

// Manager holds flags parsed from FEATURE_FLAGS, e.g. "badge_events=on"
// or "badge_events=25%". A nil Manager reports every flag off.
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma separated name=value list. Malformed entries
// are dropped.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule)}
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		if r, ok := parseRule(value); ok {
			m.rules[name] = r
		}
	}
	return m
}

// Enabled reports whether name is on for groupID. Partial rollouts hash the
// flag name with the group id, so a group stays in or out across restarts;
// group 0 is never part of a partial rollout.
func (m *Manager) Enabled(name string, groupID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case !r.rollout:
		return true
	case groupID == 0:
		return false
	}
	return bucket(name, groupID) < r.percent
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

// Snapshot evaluates every configured flag for groupID.
func (m *Manager) Snapshot(groupID uint) map[string]bool {
	out := map[string]bool{}
	if m == nil {
		return out
	}
	for name := range m.rules {
		out[name] = m.Enabled(name, groupID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, groupID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(groupID), 10)))
	return int(h.Sum32() % 100)
}
