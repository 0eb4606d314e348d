package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
	"github.com/Dosada05/court-dispatch/scheduler"
)

const (
	DefaultBottleneckMultiple = 1.5

	lowUtilization     = 0.5
	healthyUtilization = 0.7
)

type UtilizationAdvisory string

const (
	AdvisoryNoCourts UtilizationAdvisory = "no_courts"
	AdvisoryLow      UtilizationAdvisory = "low_utilization"
	AdvisoryModerate UtilizationAdvisory = "moderate_utilization"
	AdvisoryHealthy  UtilizationAdvisory = "healthy_utilization"
)

type CategoryLoad struct {
	Category             string  `json:"category"`
	Waiting              int     `json:"waiting"`
	InProgress           int     `json:"in_progress"`
	MeanDurationMinutes  float64 `json:"mean_duration_minutes"`
	EstimatedWaitMinutes float64 `json:"estimated_wait_minutes"`
}

type Suggestion struct {
	Action   string `json:"action"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

type BottleneckReport struct {
	GeneratedAt        time.Time             `json:"generated_at"`
	Flagged            bool                  `json:"flagged"`
	Category           string                `json:"category,omitempty"`
	Details            []CategoryLoad        `json:"details"`
	AverageWaitMinutes float64               `json:"average_wait_minutes"`
	ThresholdMultiple  float64               `json:"threshold_multiple"`
	Suggestion         *Suggestion           `json:"suggestion,omitempty"`
	OccupiedCourts     int                   `json:"occupied_courts"`
	TotalCourts        int                   `json:"total_courts"`
	Utilization        float64               `json:"utilization"`
	Advisory           UtilizationAdvisory   `json:"advisory"`
	ActiveBoost        *models.PriorityBoost `json:"active_boost,omitempty"`
}

type BottleneckService interface {
	Analyze(ctx context.Context) (*BottleneckReport, error)
	// ApplySuggestion installs the single priority boost for category,
	// replacing any earlier one.
	ApplySuggestion(ctx context.Context, category string) (*models.PriorityBoost, error)
}

type bottleneckService struct {
	matches  repositories.MatchRepository
	courts   repositories.CourtRepository
	system   repositories.SystemRepository
	tracker  *DurationTracker
	multiple float64
	boostTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewBottleneckService(
	store *repositories.Store,
	tracker *DurationTracker,
	multiple float64,
	boostTTL time.Duration,
	logger *slog.Logger,
) BottleneckService {
	if multiple <= 1 {
		multiple = DefaultBottleneckMultiple
	}
	if boostTTL <= 0 {
		boostTTL = scheduler.DefaultBoostTTL
	}
	return &bottleneckService{
		matches:  store.Matches,
		courts:   store.Courts,
		system:   store.System,
		tracker:  tracker,
		multiple: multiple,
		boostTTL: boostTTL,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *bottleneckService) Analyze(ctx context.Context) (*BottleneckReport, error) {
	snap, err := loadSnapshot(ctx, s.matches, s.courts, s.tracker, openStatuses)
	if err != nil {
		return nil, err
	}
	boost, err := s.system.GetBoost(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read priority boost: %w", err)
	}
	now := s.now().UTC()

	loads := make(map[string]*CategoryLoad)
	for _, m := range snap.matches {
		if m.IsWalkover {
			continue
		}
		key := m.Category().Key()
		l, ok := loads[key]
		if !ok {
			l = &CategoryLoad{Category: key}
			loads[key] = l
		}
		if m.Status == models.MatchStatusWaiting {
			l.Waiting++
		} else {
			l.InProgress++
		}
	}

	report := &BottleneckReport{
		GeneratedAt:       now,
		Details:           make([]CategoryLoad, 0, len(loads)),
		ThresholdMultiple: s.multiple,
		TotalCourts:       len(snap.courts),
	}
	if boost.ActiveAt(now, s.boostTTL) {
		report.ActiveBoost = boost
	}

	for _, c := range snap.courts {
		if !c.IsFree() {
			report.OccupiedCourts++
		}
	}
	report.Utilization, report.Advisory = utilization(report.OccupiedCourts, report.TotalCourts)

	// ожидание считается так, будто категории достались все корты
	courts := max(report.TotalCourts, 1)
	sum := 0.0
	for _, l := range loads {
		l.MeanDurationMinutes = snap.stats.MeanFor(l.Category)
		l.EstimatedWaitMinutes, _ = EstimateMinutes(l.Waiting, courts, l.MeanDurationMinutes)
		sum += l.EstimatedWaitMinutes
		report.Details = append(report.Details, *l)
	}
	slices.SortFunc(report.Details, func(a, b CategoryLoad) int {
		return cmp.Or(
			cmp.Compare(b.EstimatedWaitMinutes, a.EstimatedWaitMinutes),
			cmp.Compare(a.Category, b.Category),
		)
	})
	if len(report.Details) == 0 {
		return report, nil
	}
	report.AverageWaitMinutes = sum / float64(len(report.Details))

	worst := report.Details[0]
	if len(report.Details) > 1 && worst.EstimatedWaitMinutes > s.multiple*report.AverageWaitMinutes {
		report.Flagged = true
		report.Category = worst.Category
		report.Suggestion = &Suggestion{
			Action:   "priority_boost",
			Category: worst.Category,
			Message: fmt.Sprintf("%s has %d waiting matches (about %.0f min) against an average of %.0f min; boost %s for %s",
				worst.Category, worst.Waiting, worst.EstimatedWaitMinutes, report.AverageWaitMinutes, worst.Category, s.boostTTL),
		}
	}
	return report, nil
}

func utilization(occupied, total int) (float64, UtilizationAdvisory) {
	if total == 0 {
		return 0, AdvisoryNoCourts
	}
	u := float64(occupied) / float64(total)
	switch {
	case u < lowUtilization:
		return u, AdvisoryLow
	case u > healthyUtilization:
		return u, AdvisoryHealthy
	default:
		return u, AdvisoryModerate
	}
}

func (s *bottleneckService) ApplySuggestion(ctx context.Context, category string) (*models.PriorityBoost, error) {
	cat, err := models.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCategory, err)
	}
	boost := &models.PriorityBoost{Category: cat.Key(), ActivatedAt: s.now().UTC()}
	if err := s.system.SaveBoost(ctx, boost); err != nil {
		return nil, fmt.Errorf("failed to save priority boost for %s: %w", cat.Key(), err)
	}
	s.logger.Info("priority boost applied",
		slog.String("category", boost.Category),
		slog.Time("expires_at", boost.ExpiresAt(s.boostTTL)))
	return boost, nil
}
