package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/cache"
	"github.com/andresuchdata/redistribution-planner/internal/config"
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/andresuchdata/redistribution-planner/internal/planner"
	"github.com/andresuchdata/redistribution-planner/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	minTrucksPerRequest = 1
	maxTrucksPerRequest = 50
)

// ErrInvalidRequest marks request validation failures so the transport layer
// can map them to a 400 instead of a 500.
var ErrInvalidRequest = errors.New("invalid request")

// TransferSuggestionService runs redistribution plans on demand. Concurrent
// runs are bounded by a weighted semaphore and each run carries its own
// timeout, so a slow solve can't pile requests onto the database.
type TransferSuggestionService struct {
	snapshots repository.SnapshotProvider
	planner   *planner.Planner
	cache     cache.PlanCache
	runs      *semaphore.Weighted
	timeout   time.Duration
}

func NewTransferSuggestionService(snapshots repository.SnapshotProvider, p *planner.Planner, planCache cache.PlanCache, cfg config.PlannerConfig) *TransferSuggestionService {
	if planCache == nil {
		planCache = cache.NewNoopPlanCache()
	}
	maxRuns := cfg.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 1
	}
	timeout := cfg.RunTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &TransferSuggestionService{
		snapshots: snapshots,
		planner:   p,
		cache:     planCache,
		runs:      semaphore.NewWeighted(int64(maxRuns)),
		timeout:   timeout,
	}
}

// GenerateSuggestions validates the request, runs the pipeline and caches a
// successful plan. It never returns an error for plan-level problems; those
// come back inside the result with Success=false.
func (s *TransferSuggestionService) GenerateSuggestions(ctx context.Context, req domain.PlanRequest) (*domain.PlanResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if err := s.runs.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire planner slot: %w", err)
	}
	defer s.runs.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	runID := uuid.NewString()
	started := time.Now()
	result := s.run(runCtx, runID, req)
	result.RunID = runID

	log.Info().
		Str("run_id", runID).
		Bool("success", result.Success).
		Int("transfers", len(result.TransferRecords)).
		Dur("elapsed", time.Since(started)).
		Msg("transfer suggestion run finished")

	if result.Success {
		if err := s.cache.SetLatest(runCtx, result); err != nil {
			log.Warn().Err(err).Str("run_id", runID).Msg("plan cache set failed")
		}
	}

	return result, nil
}

// run isolates one planning run. A panic anywhere in the pipeline is
// converted into a failed result so the transport layer always gets a
// well-formed response.
func (s *TransferSuggestionService) run(ctx context.Context, runID string, req domain.PlanRequest) (result *domain.PlanResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("run_id", runID).Interface("panic", r).Msg("planner run panicked")
			result = &domain.PlanResult{
				Success:         false,
				Message:         "An unexpected error occurred while generating transfer suggestions",
				Error:           fmt.Sprintf("%v", r),
				TransferRecords: []domain.TransferRecord{},
				ProductSummary:  []domain.ProductSummary{},
				RouteSummary:    []domain.RouteSummary{},
			}
		}
	}()

	snap, err := s.snapshots.Fetch(ctx)
	if err != nil {
		log.Error().Err(err).Str("run_id", runID).Msg("snapshot fetch failed")
		return &domain.PlanResult{
			Success:         false,
			Message:         "Failed to fetch data from database",
			Error:           err.Error(),
			TransferRecords: []domain.TransferRecord{},
			ProductSummary:  []domain.ProductSummary{},
			RouteSummary:    []domain.RouteSummary{},
		}
	}

	return s.planner.Run(ctx, snap, req)
}

// Latest returns the most recent cached plan, if any.
func (s *TransferSuggestionService) Latest(ctx context.Context) (*domain.PlanResult, bool, error) {
	return s.cache.GetLatest(ctx)
}

func validateRequest(req domain.PlanRequest) error {
	if req.MaxTrucksToUse != 0 && (req.MaxTrucksToUse < minTrucksPerRequest || req.MaxTrucksToUse > maxTrucksPerRequest) {
		return fmt.Errorf("%w: max_trucks_to_use must be between %d and %d", ErrInvalidRequest, minTrucksPerRequest, maxTrucksPerRequest)
	}
	if req.ConfidenceThreshold < 0 || req.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: confidence_threshold must be between 0 and 1", ErrInvalidRequest)
	}
	return nil
}
