package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
)

const (
	DefaultMatchMinutes   = 15.0
	DefaultDurationWindow = 20
)

// DurationStats maps a category key to its mean match duration in
// minutes. Lookups for unknown categories fall back to the default.
type DurationStats struct {
	Means          map[string]float64 `json:"means"`
	Samples        map[string]int     `json:"samples"`
	DefaultMinutes float64            `json:"default_minutes"`
}

func (s *DurationStats) MeanFor(category string) float64 {
	if s != nil {
		if m, ok := s.Means[category]; ok && m > 0 {
			return m
		}
		if s.DefaultMinutes > 0 {
			return s.DefaultMinutes
		}
	}
	return DefaultMatchMinutes
}

// DurationTracker appends a sample per completed match and turns the
// most recent samples into per-category moving averages.
type DurationTracker struct {
	repo           repositories.DurationRepository
	window         int
	defaultMinutes float64
	now            func() time.Time
}

func NewDurationTracker(repo repositories.DurationRepository, window int, defaultMinutes float64) *DurationTracker {
	if window <= 0 {
		window = DefaultDurationWindow
	}
	if defaultMinutes <= 0 {
		defaultMinutes = DefaultMatchMinutes
	}
	return &DurationTracker{repo: repo, window: window, defaultMinutes: defaultMinutes, now: time.Now}
}

// Record stores the elapsed minutes between the match being called and
// its completion. Matches without both timestamps (walkovers) produce
// no sample and no error.
func (t *DurationTracker) Record(ctx context.Context, m *models.Match) (*models.DurationSample, error) {
	if m == nil || m.StartedAt == nil || m.CompletedAt == nil {
		return nil, nil
	}
	elapsed := m.CompletedAt.Sub(*m.StartedAt)
	if elapsed < 0 {
		return nil, nil
	}

	sample := &models.DurationSample{
		Category:        m.Category().Key(),
		DurationMinutes: elapsed.Minutes(),
		RecordedAt:      t.now().UTC(),
	}
	if err := t.repo.Append(ctx, sample); err != nil {
		return nil, fmt.Errorf("failed to record duration for match %s: %w", m.ID, err)
	}
	return sample, nil
}

func (t *DurationTracker) Stats(ctx context.Context) (*DurationStats, error) {
	samples, err := t.repo.ListRecent(ctx, t.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load duration samples: %w", err)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range samples {
		sums[s.Category] += s.DurationMinutes
		counts[s.Category]++
	}

	stats := &DurationStats{
		Means:          make(map[string]float64, len(sums)),
		Samples:        counts,
		DefaultMinutes: t.defaultMinutes,
	}
	for cat, sum := range sums {
		stats.Means[cat] = sum / float64(counts[cat])
	}
	return stats, nil
}
