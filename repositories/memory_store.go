package repositories

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Dosada05/court-dispatch/models"
	"github.com/google/uuid"
)

// memoryState is a process-local document store. One mutex guards every
// collection, which gives the court claim the same all-or-nothing
// behaviour as the postgres transaction.
type memoryState struct {
	mu        sync.Mutex
	players   map[string]*models.Player
	matches   map[string]*models.Match
	courts    map[string]*models.Court
	config    *models.SystemConfig
	boost     *models.PriorityBoost
	durations []*models.DurationSample
}

// NewMemoryStore returns a Store kept entirely in memory.
func NewMemoryStore() *Store {
	s := &memoryState{
		players: make(map[string]*models.Player),
		matches: make(map[string]*models.Match),
		courts:  make(map[string]*models.Court),
	}
	return &Store{
		Players:   &memoryPlayerRepository{s},
		Matches:   &memoryMatchRepository{s},
		Courts:    &memoryCourtRepository{s},
		Dispatch:  &memoryDispatchRepository{s},
		System:    &memorySystemRepository{s},
		Durations: &memoryDurationRepository{s},
	}
}

func copyPlayer(p *models.Player) *models.Player {
	c := *p
	return &c
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	c.CourtID = copyString(m.CourtID)
	c.Player1ID, c.Player2ID = copyString(m.Player1ID), copyString(m.Player2ID)
	c.Player3ID, c.Player4ID = copyString(m.Player3ID), copyString(m.Player4ID)
	c.Player5ID, c.Player6ID = copyString(m.Player5ID), copyString(m.Player6ID)
	c.ScoreP1, c.ScoreP2 = copyInt(m.ScoreP1), copyInt(m.ScoreP2)
	c.WinnerID, c.NextMatchID = copyString(m.WinnerID), copyString(m.NextMatchID)
	c.WinnerToSlot = copyInt(m.WinnerToSlot)
	c.StartedAt, c.CompletedAt = copyTime(m.StartedAt), copyTime(m.CompletedAt)
	return &c
}

func copyCourt(c *models.Court) *models.Court {
	out := *c
	out.CurrentMatchID = copyString(c.CurrentMatchID)
	return &out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type memoryPlayerRepository struct{ s *memoryState }

func (r *memoryPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.s.players[p.ID]; ok {
		return ErrPlayerInvalid
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	r.s.players[p.ID] = copyPlayer(p)
	return nil
}

func (r *memoryPlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return copyPlayer(p), nil
}

func (r *memoryPlayerRepository) List(ctx context.Context, filter models.PlayerFilter) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Player, 0, len(r.s.players))
	for _, p := range r.s.players {
		if filter.Matches(p) {
			out = append(out, copyPlayer(p))
		}
	}
	slices.SortFunc(out, func(a, b *models.Player) int {
		return cmp.Or(
			cmp.Compare(b.TotalPoints, a.TotalPoints),
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (r *memoryPlayerRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	p.IsActive = active
	return nil
}

type memoryMatchRepository struct{ s *memoryState }

func (r *memoryMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if _, ok := r.s.matches[m.ID]; ok {
			return ErrMatchStatusConflict
		}
	}
	for _, m := range matches {
		r.s.matches[m.ID] = copyMatch(m)
	}
	return nil
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return copyMatch(m), nil
}

func (r *memoryMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, m.Status) {
			continue
		}
		if filter.Category != nil && m.Category() != *filter.Category {
			continue
		}
		if filter.BracketID != nil && m.BracketID != *filter.BracketID {
			continue
		}
		out = append(out, copyMatch(m))
	}
	slices.SortFunc(out, func(a, b *models.Match) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.Round, b.Round),
			cmp.Compare(a.MatchNumber, b.MatchNumber),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (r *memoryMatchRepository) Start(ctx context.Context, id string, at time.Time) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if m.Status != models.MatchStatusCalling {
		return nil, ErrMatchStatusConflict
	}
	m.Status = models.MatchStatusPlaying
	m.UpdatedAt = at
	if m.StartedAt == nil {
		m.StartedAt = copyTime(&at)
	}
	return copyMatch(m), nil
}

func (r *memoryMatchRepository) Complete(ctx context.Context, params CompleteMatchParams) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[params.MatchID]
	if !ok {
		return nil, ErrMatchNotFound
	}
	if !slices.Contains(params.FromStatuses, m.Status) {
		return nil, ErrMatchStatusConflict
	}
	m.Status = models.MatchStatusCompleted
	m.ScoreP1, m.ScoreP2 = copyInt(params.ScoreP1), copyInt(params.ScoreP2)
	m.WinnerID = copyString(params.WinnerID)
	m.CompletedAt = copyTime(&params.CompletedAt)
	m.UpdatedAt = params.CompletedAt

	if m.CourtID != nil {
		if c, ok := r.s.courts[*m.CourtID]; ok && c.CurrentMatchID != nil && *c.CurrentMatchID == m.ID {
			c.CurrentMatchID = nil
		}
	}
	return copyMatch(m), nil
}

func (r *memoryMatchRepository) FillSide(ctx context.Context, id string, side int, playerIDs []string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	if m.Status != models.MatchStatusWaiting {
		return ErrMatchStatusConflict
	}
	m.SetSide(side, playerIDs)
	m.UpdatedAt = at
	return nil
}

type memoryCourtRepository struct{ s *memoryState }

func (r *memoryCourtRepository) Create(ctx context.Context, court *models.Court) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if court.ID == "" {
		court.ID = uuid.NewString()
	}
	if court.Name == "" {
		court.Name = court.ID
	}
	if _, ok := r.s.courts[court.ID]; ok {
		return ErrCourtConflict
	}
	court.CurrentMatchID = nil
	r.s.courts[court.ID] = copyCourt(court)
	return nil
}

func (r *memoryCourtRepository) List(ctx context.Context) ([]*models.Court, error) {
	return r.list(false), nil
}

func (r *memoryCourtRepository) ListFree(ctx context.Context) ([]*models.Court, error) {
	return r.list(true), nil
}

func (r *memoryCourtRepository) list(freeOnly bool) []*models.Court {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Court, 0, len(r.s.courts))
	for _, c := range r.s.courts {
		if freeOnly && !c.IsFree() {
			continue
		}
		out = append(out, copyCourt(c))
	}
	slices.SortFunc(out, func(a, b *models.Court) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

type memoryDispatchRepository struct{ s *memoryState }

func (r *memoryDispatchRepository) ClaimCourt(ctx context.Context, courtID, matchID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courts[courtID]
	if !ok {
		return ErrCourtNotFound
	}
	if !c.IsFree() {
		return ErrCourtTaken
	}
	m, ok := r.s.matches[matchID]
	if !ok || m.Status != models.MatchStatusWaiting || m.CourtID != nil {
		return ErrMatchTaken
	}
	c.CurrentMatchID = copyString(&matchID)
	m.Status = models.MatchStatusCalling
	m.CourtID = copyString(&courtID)
	m.UpdatedAt = at
	m.StartedAt = copyTime(&at)
	return nil
}

type memorySystemRepository struct{ s *memoryState }

func (r *memorySystemRepository) GetConfig(ctx context.Context) (*models.SystemConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.config == nil {
		return &models.SystemConfig{EnabledTournaments: []string{}}, nil
	}
	c := *r.s.config
	c.EnabledTournaments = slices.Clone(r.s.config.EnabledTournaments)
	return &c, nil
}

func (r *memorySystemRepository) SaveConfig(ctx context.Context, cfg *models.SystemConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *cfg
	c.EnabledTournaments = slices.Clone(cfg.EnabledTournaments)
	if c.EnabledTournaments == nil {
		c.EnabledTournaments = []string{}
	}
	r.s.config = &c
	return nil
}

func (r *memorySystemRepository) GetBoost(ctx context.Context) (*models.PriorityBoost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.boost == nil {
		return nil, nil
	}
	b := *r.s.boost
	return &b, nil
}

func (r *memorySystemRepository) SaveBoost(ctx context.Context, boost *models.PriorityBoost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b := *boost
	r.s.boost = &b
	return nil
}

type memoryDurationRepository struct{ s *memoryState }

func (r *memoryDurationRepository) Append(ctx context.Context, sample *models.DurationSample) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	s := *sample
	r.s.durations = append(r.s.durations, &s)
	return nil
}

func (r *memoryDurationRepository) ListRecent(ctx context.Context, perCategory int) ([]*models.DurationSample, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sorted := make([]*models.DurationSample, 0, len(r.s.durations))
	for _, d := range r.s.durations {
		c := *d
		sorted = append(sorted, &c)
	}
	slices.SortStableFunc(sorted, func(a, b *models.DurationSample) int {
		return cmp.Or(
			cmp.Compare(a.Category, b.Category),
			b.RecordedAt.Compare(a.RecordedAt),
			cmp.Compare(b.ID, a.ID),
		)
	})
	out := make([]*models.DurationSample, 0, len(sorted))
	taken := make(map[string]int)
	for _, d := range sorted {
		if perCategory > 0 && taken[d.Category] >= perCategory {
			continue
		}
		taken[d.Category]++
		out = append(out, d)
	}
	return out, nil
}
