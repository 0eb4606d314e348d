package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/Dosada05/court-dispatch/repositories"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultBoostTTL    = 30 * time.Minute
	DefaultTickTimeout = 20 * time.Second
)

var ErrAlreadyRunning = errors.New("scheduler is already running")

type Config struct {
	Interval    time.Duration
	BoostTTL    time.Duration
	TickTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.BoostTTL <= 0 {
		c.BoostTTL = DefaultBoostTTL
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = DefaultTickTimeout
	}
	return c
}

// Scheduler fills free courts with waiting matches. Several instances
// may run against the same store; the court claim in the store keeps
// them from double-booking.
type Scheduler struct {
	matches  repositories.MatchRepository
	courts   repositories.CourtRepository
	dispatch repositories.DispatchRepository
	system   repositories.SystemRepository
	clock    Clock
	cfg      Config
	logger   *slog.Logger

	tickMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store *repositories.Store, cfg Config, clock Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		matches:  store.Matches,
		courts:   store.Courts,
		dispatch: store.Dispatch,
		system:   store.System,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		logger:   logger.With(slog.String("component", "dispatch_scheduler")),
	}
}

// DispatchOnce runs a single dispatch pass regardless of the
// auto-dispatch toggle and returns how many matches were called.
func (s *Scheduler) DispatchOnce(ctx context.Context) (int, error) {
	cfg, err := s.system.GetConfig(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read system config: %w", err)
	}
	return s.dispatchWith(ctx, cfg)
}

func (s *Scheduler) dispatchWith(ctx context.Context, cfg *models.SystemConfig) (int, error) {
	now := s.clock.Now()

	boost, err := s.system.GetBoost(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read priority boost: %w", err)
	}

	free, err := s.courts.ListFree(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list free courts: %w", err)
	}
	if len(free) == 0 {
		return 0, nil
	}

	open, err := s.matches.List(ctx, models.MatchFilter{Statuses: []models.MatchStatus{
		models.MatchStatusWaiting, models.MatchStatusCalling, models.MatchStatusPlaying,
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to list open matches: %w", err)
	}

	busy := make(map[string]bool)
	waiting := make([]*models.Match, 0, len(open))
	for _, m := range open {
		if m.Status.OccupiesCourt() {
			markBusy(m, busy)
			continue
		}
		waiting = append(waiting, m)
	}

	candidates := SelectCandidates(waiting, cfg, boost, busy, now, s.cfg.BoostTTL)
	dispatched := 0
	next := 0

courts:
	for _, court := range free {
		for next < len(candidates) {
			m := candidates[next]
			if hasBusyPlayer(m, busy) {
				next++
				continue
			}

			err := s.dispatch.ClaimCourt(ctx, court.ID, m.ID, now)
			switch {
			case err == nil:
				dispatched++
				next++
				markBusy(m, busy)
				s.logger.Info("match called to court",
					slog.String("match_id", m.ID),
					slog.String("court_id", court.ID),
					slog.String("category", m.Category().Key()),
					slog.Int("round", m.Round))
				continue courts
			case errors.Is(err, repositories.ErrMatchTaken):
				// another instance called this match, try the next one
				next++
			case errors.Is(err, repositories.ErrCourtTaken), errors.Is(err, repositories.ErrCourtNotFound):
				continue courts
			default:
				return dispatched, fmt.Errorf("failed to assign match %s to court %s: %w", m.ID, court.ID, err)
			}
		}
		break
	}
	return dispatched, nil
}

// Start runs the dispatch loop until ctx is cancelled or Stop is called.
// The first tick runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx, s.done)

	s.logger.Info("dispatch scheduler started", slog.Duration("interval", s.cfg.Interval))
	return nil
}

// Stop schedules no further ticks and waits for an in-flight tick to
// finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("dispatch scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.tick(ctx)
		}
	}
}

// tick never returns an error: failures are logged and the next tick
// simply tries again.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.tickMu.TryLock() {
		return
	}
	defer s.tickMu.Unlock()

	// a started tick is allowed to finish even if the loop is stopping
	tickCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.TickTimeout)
	defer cancel()

	cfg, err := s.system.GetConfig(tickCtx)
	if err != nil {
		s.logger.Error("dispatch tick failed", slog.Any("error", err))
		return
	}
	if !cfg.AutoDispatchEnabled {
		s.logger.Debug("auto dispatch disabled, skipping tick")
		return
	}

	n, err := s.dispatchWith(tickCtx, cfg)
	if err != nil {
		s.logger.Error("dispatch tick failed", slog.Int("dispatched", n), slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Info("dispatch tick completed", slog.Int("dispatched", n))
	} else {
		s.logger.Debug("dispatch tick completed, nothing to call")
	}
}
