package models

import (
	"slices"
	"time"
)

// SystemConfig is the config/system document. It is written only by
// the administrative surface and read by the scheduler on every tick.
type SystemConfig struct {
	AutoDispatchEnabled bool      `json:"auto_dispatch_enabled"`
	EnabledTournaments  []string  `json:"enabled_tournaments"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Allows reports whether the category may be served. An entry matches
// either the full category key ("MD-2") or the bare tournament type ("MD").
func (c *SystemConfig) Allows(cat Category) bool {
	if c == nil || len(c.EnabledTournaments) == 0 {
		return true
	}
	return slices.Contains(c.EnabledTournaments, cat.Key()) ||
		slices.Contains(c.EnabledTournaments, string(cat.TournamentType))
}

// PriorityBoost is the single boost record. Expiry is decided by
// timestamp comparison; the record is never deleted.
type PriorityBoost struct {
	Category    string    `json:"category"`
	ActivatedAt time.Time `json:"activated_at"`
}

func (b *PriorityBoost) ActiveAt(now time.Time, ttl time.Duration) bool {
	if b == nil || b.Category == "" {
		return false
	}
	return now.Sub(b.ActivatedAt) <= ttl
}

func (b *PriorityBoost) ExpiresAt(ttl time.Duration) time.Time {
	return b.ActivatedAt.Add(ttl)
}

type DurationSample struct {
	ID              string    `json:"id"`
	Category        string    `json:"category"`
	DurationMinutes float64   `json:"duration_minutes"`
	RecordedAt      time.Time `json:"recorded_at"`
}
