// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/arcadepoints/internal/adapters/repository"
	"github.com/okian/arcadepoints/internal/domain/catalog"
	"github.com/okian/arcadepoints/internal/domain/normalize"
	"github.com/okian/arcadepoints/internal/domain/policy"
	"github.com/okian/arcadepoints/internal/domain/types"
	"github.com/okian/arcadepoints/internal/engine"
	"github.com/okian/arcadepoints/pkg/logger"
	"github.com/okian/arcadepoints/pkg/metrics"
)

// Service implements the API dependencies for the arcade points system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine      *engine.Engine
	leaderboard repository.Store

	// Configuration
	batchConcurrency int
	maxBatchSize     int
	newID            func() string

	// State
	started     bool
	startedAt   time.Time
	evaluations atomic.Int64

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		batchConcurrency: runtime.NumCPU(),
		maxBatchSize:     500,
		newID:            uuid.NewString,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes missing components. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting arcade points service...")

	if s.engine == nil {
		e, err := engine.New(policy.Default(), catalog.Default(), engine.WithLogger(s.logger.Named("engine")))
		if err != nil {
			return fmt.Errorf("build default engine: %w", err)
		}
		s.engine = e
	}
	if s.leaderboard == nil {
		s.leaderboard = repository.NewTreapStore()
		s.logger.Info(ctx, "using in-memory treap leaderboard")
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "arcade points service started",
		logger.Int("batchConcurrency", s.batchConcurrency),
		logger.Int("maxBatchSize", s.maxBatchSize),
	)

	return nil
}

// Stop marks the service stopped. Components are kept for a later Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "arcade points service stopped",
		logger.Int64("evaluations", s.evaluations.Load()),
	)
}

// components returns the engine and store, or ErrNotStarted.
func (s *Service) components() (*engine.Engine, repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.engine, s.leaderboard, nil
}

// Score computes one participant's result and, when the request names a
// participant, records it on the leaderboard.
func (s *Service) Score(ctx context.Context, req types.ScoreRequest) (types.ScoreResponse, error) {
	eng, store, err := s.components()
	if err != nil {
		return types.ScoreResponse{}, err
	}
	return s.score(ctx, eng, store, req)
}

func (s *Service) score(ctx context.Context, eng *engine.Engine, store repository.Store, req types.ScoreRequest) (types.ScoreResponse, error) {
	if err := validate(req); err != nil {
		return types.ScoreResponse{}, err
	}

	resp := types.ScoreResponse{
		EvaluationID:  s.newID(),
		ParticipantID: strings.TrimSpace(req.ParticipantID),
		Result:        eng.Compute(ctx, req.Badges, req.Facilitator, req.Window),
	}
	s.evaluations.Add(1)

	if resp.ParticipantID == "" {
		return resp, nil
	}

	tier := 0
	if resp.Milestone != nil {
		tier = resp.Milestone.Tier
	}
	entry, err := store.Upsert(ctx, repository.Entry{
		ParticipantID: resp.ParticipantID,
		Total:         resp.Breakdown.Total,
		Tier:          tier,
		EvaluationID:  resp.EvaluationID,
	})
	if err != nil {
		s.logger.Error(ctx, "failed to record leaderboard entry",
			logger.String("participantID", resp.ParticipantID),
			logger.Error(err),
		)
		return types.ScoreResponse{}, fmt.Errorf("record leaderboard entry: %w", err)
	}
	resp.Rank = entry.Rank
	return resp, nil
}

func validate(req types.ScoreRequest) error {
	if w := req.Window; w != nil {
		if w.Start.IsZero() || w.End.IsZero() {
			return fmt.Errorf("%w: window needs both start and end", ErrInvalidRequest)
		}
		if w.End.Before(w.Start) {
			return fmt.Errorf("%w: window ends before it starts", ErrInvalidRequest)
		}
	}
	return nil
}

// ScoreBatch scores many participants concurrently. Results keep request
// order. Every request is validated before any is scored; after that the
// first failure cancels the remaining work.
func (s *Service) ScoreBatch(ctx context.Context, reqs []types.ScoreRequest) ([]types.ScoreResponse, error) {
	eng, store, err := s.components()
	if err != nil {
		return nil, err
	}
	if len(reqs) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: %d participants, limit %d", ErrBatchTooLarge, len(reqs), s.maxBatchSize)
	}
	// A rejected batch must not leave partial entries on the leaderboard.
	for i, req := range reqs {
		if err := validate(req); err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
	}
	metrics.RecordBatchSize(len(reqs))

	out := make([]types.ScoreResponse, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := s.score(gctx, eng, store, reqs[i])
			if err != nil {
				return fmt.Errorf("participant %d: %w", i, err)
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "scored batch", logger.Int("participants", len(reqs)))
	return out, nil
}

// Classify returns the category of each raw name, in order.
func (s *Service) Classify(_ context.Context, names []string) ([]types.ClassifiedName, error) {
	eng, _, err := s.components()
	if err != nil {
		return nil, err
	}
	out := make([]types.ClassifiedName, len(names))
	for i, n := range names {
		out[i] = types.ClassifiedName{
			Name:       n,
			Normalized: normalize.Name(n),
			Category:   eng.Classify(n),
		}
	}
	return out, nil
}

// Policy returns the active scoring policy.
func (s *Service) Policy(_ context.Context) (policy.Policy, error) {
	eng, _, err := s.components()
	if err != nil {
		return policy.Policy{}, err
	}
	return eng.Policy(), nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	_, store, err := s.components()
	if err != nil {
		return nil, err
	}
	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	// Convert to API format
	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = toAPIEntry(entry)
	}

	return apiEntries, nil
}

// Rank returns the leaderboard row for a participant.
func (s *Service) Rank(ctx context.Context, participantID string) (types.Entry, error) {
	_, store, err := s.components()
	if err != nil {
		return types.Entry{}, err
	}
	entry, err := store.Rank(ctx, participantID)
	if err != nil {
		return types.Entry{}, err
	}
	return toAPIEntry(entry), nil
}

func toAPIEntry(e repository.Entry) types.Entry {
	return types.Entry{
		Rank:          e.Rank,
		ParticipantID: e.ParticipantID,
		Total:         e.Total,
		Tier:          e.Tier,
		UpdatedAt:     e.UpdatedAt,
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Started:          s.started,
		Evaluations:      s.evaluations.Load(),
		BatchConcurrency: s.batchConcurrency,
		MaxBatchSize:     s.maxBatchSize,
	}

	if s.started {
		stats.Uptime = time.Since(s.startedAt).Round(time.Second).String()
		stats.Participants = s.leaderboard.Count(context.Background())
		stats.CatalogEntries = s.engine.CatalogSize()
		metrics.UpdateLeaderboardParticipants(stats.Participants)
	}

	return stats
}
