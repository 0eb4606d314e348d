package services

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
	"golang.org/x/sync/errgroup"
)

type ETAStatus string

const (
	ETAStatusEstimated ETAStatus = "estimated"
	ETAStatusFinished  ETAStatus = "finished"
	// ETAStatusStalled means matches remain but there is no court to play them on.
	ETAStatusStalled ETAStatus = "stalled"
)

type ETAEstimate struct {
	Category            string     `json:"category,omitempty"`
	Status              ETAStatus  `json:"status"`
	RemainingMatches    int        `json:"remaining_matches"`
	Courts              int        `json:"courts"`
	MeanDurationMinutes float64    `json:"mean_duration_minutes"`
	EstimatedMinutes    *float64   `json:"estimated_minutes,omitempty"`
	EstimatedEnd        *time.Time `json:"estimated_end,omitempty"`
}

type ETAReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Overall     ETAEstimate   `json:"overall"`
	Categories  []ETAEstimate `json:"categories"`
}

type ETAService interface {
	Estimate(ctx context.Context) (*ETAReport, error)
}

type etaService struct {
	matches repositories.MatchRepository
	courts  repositories.CourtRepository
	tracker *DurationTracker
	now     func() time.Time
}

func NewETAService(matches repositories.MatchRepository, courts repositories.CourtRepository, tracker *DurationTracker) ETAService {
	return &etaService{matches: matches, courts: courts, tracker: tracker, now: time.Now}
}

// EstimateMinutes is ceil(remaining / courts) rounds of mean minutes.
// It returns 0 when nothing remains and false when courts are needed
// but none are available.
func EstimateMinutes(remaining, courts int, mean float64) (float64, bool) {
	if remaining <= 0 {
		return 0, true
	}
	if courts <= 0 {
		return 0, false
	}
	if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		mean = DefaultMatchMinutes
	}
	rounds := (remaining + courts - 1) / courts
	return float64(rounds) * mean, true
}

// courtShare splits total courts between categories in proportion to
// their remaining matches. Each category with work gets at least one
// court and never more courts than matches.
func courtShare(total, remaining, allRemaining int) int {
	if total <= 0 || remaining <= 0 {
		return 0
	}
	share := int(math.Round(float64(total) * float64(remaining) / float64(allRemaining)))
	return min(max(share, 1), remaining)
}

// snapshot is one consistent-enough read of everything the analytics need.
type snapshot struct {
	matches []*models.Match
	courts  []*models.Court
	stats   *DurationStats
}

func loadSnapshot(ctx context.Context, matches repositories.MatchRepository, courts repositories.CourtRepository, tracker *DurationTracker, statuses []models.MatchStatus) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := matches.List(gctx, models.MatchFilter{Statuses: statuses})
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}
		snap.matches = list
		return nil
	})
	g.Go(func() error {
		list, err := courts.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list courts: %w", err)
		}
		snap.courts = list
		return nil
	})
	g.Go(func() error {
		stats, err := tracker.Stats(gctx)
		if err != nil {
			return err
		}
		snap.stats = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *etaService) Estimate(ctx context.Context) (*ETAReport, error) {
	// все статусы: категории, где всё сыграно, показываются как finished
	snap, err := loadSnapshot(ctx, s.matches, s.courts, s.tracker, nil)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	remaining := make(map[string]int)
	total := 0
	for _, m := range snap.matches {
		key := m.Category().Key()
		// walkover slots never take a court
		if m.Status == models.MatchStatusCompleted || m.IsWalkover {
			if _, ok := remaining[key]; !ok {
				remaining[key] = 0
			}
			continue
		}
		remaining[key]++
		total++
	}
	totalCourts := len(snap.courts)

	report := &ETAReport{GeneratedAt: now, Categories: make([]ETAEstimate, 0, len(remaining))}
	weighted := 0.0
	for key, n := range remaining {
		mean := snap.stats.MeanFor(key)
		courts := courtShare(totalCourts, n, total)
		report.Categories = append(report.Categories, buildEstimate(key, n, courts, mean, now))
		weighted += float64(n) * mean
	}
	slices.SortFunc(report.Categories, func(a, b ETAEstimate) int {
		return cmp.Compare(a.Category, b.Category)
	})

	overallMean := snap.stats.MeanFor("")
	if total > 0 {
		overallMean = weighted / float64(total)
	}
	report.Overall = buildEstimate("", total, totalCourts, overallMean, now)
	return report, nil
}

func buildEstimate(category string, remaining, courts int, mean float64, now time.Time) ETAEstimate {
	est := ETAEstimate{
		Category:            category,
		RemainingMatches:    remaining,
		Courts:              courts,
		MeanDurationMinutes: mean,
	}
	if remaining == 0 {
		est.Status = ETAStatusFinished
		return est
	}
	minutes, ok := EstimateMinutes(remaining, courts, mean)
	if !ok {
		est.Status = ETAStatusStalled
		return est
	}
	end := now.Add(time.Duration(minutes * float64(time.Minute)))
	est.Status = ETAStatusEstimated
	est.EstimatedMinutes = &minutes
	est.EstimatedEnd = &end
	return est
}
