package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/cache"
	"github.com/andresuchdata/redistribution-planner/internal/config"
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/andresuchdata/redistribution-planner/internal/planner"
	"github.com/andresuchdata/redistribution-planner/internal/repository"
	"github.com/andresuchdata/redistribution-planner/internal/repository/memory"
)

func testConfig() config.PlannerConfig {
	return config.PlannerConfig{
		ForecastHorizonDays:    30,
		ClusterRadiusMeters:    50000,
		ClusterMinSamples:      3,
		MinForecastDataPoints:  10,
		MinTransferSuggestions: 1,
		ImbalanceThreshold:     0.2,
		ConfidenceThreshold:    0.6,
		MaxTrucksToUse:         10,
		ForecastWeight:         0.5,
		NeedWeight:             0.2,
		SurplusWeight:          0.2,
		FitWeight:              0.1,
		MinConfidence:          0.1,
		BalanceConfidence:      0.8,
		ForcedConfidence:       0.6,
		RunTimeout:             time.Minute,
		MaxConcurrentRuns:      2,
		SolveBudget:            time.Second,
	}
}

func newTestService(snapshots repository.SnapshotProvider) *TransferSuggestionService {
	cfg := testConfig()
	return NewTransferSuggestionService(snapshots, planner.New(cfg), cache.NewNoopPlanCache(), cfg)
}

func minimalSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Warehouses: []domain.WarehouseNode{
			{ID: 1, Name: "North", Latitude: 0, Longitude: 0},
			{ID: 2, Name: "South", Latitude: 1, Longitude: 1},
		},
		Buyers: []domain.BuyerLocation{
			{ID: 100, Latitude: 0.00, Longitude: 0.00},
			{ID: 101, Latitude: 0.01, Longitude: 0.00},
			{ID: 102, Latitude: 0.00, Longitude: 0.01},
		},
		Inventory: []domain.InventoryRecord{
			{RecordID: 1, ProductID: 1, WarehouseID: 1, QuantityKg: 100,
				RegistrationDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		Trucks: []domain.Truck{{ID: 1, CapacityKg: 500}},
	}
}

func TestGenerateSuggestionsValidation(t *testing.T) {
	svc := newTestService(memory.NewSnapshotRepository(minimalSnapshot()))

	tests := []struct {
		name    string
		req     domain.PlanRequest
		wantErr string
	}{
		{"trucks too high", domain.PlanRequest{MaxTrucksToUse: 51}, "max_trucks_to_use"},
		{"trucks negative", domain.PlanRequest{MaxTrucksToUse: -1}, "max_trucks_to_use"},
		{"confidence too high", domain.PlanRequest{ConfidenceThreshold: 1.5}, "confidence_threshold"},
		{"confidence negative", domain.PlanRequest{ConfidenceThreshold: -0.1}, "confidence_threshold"},
		{"defaults pass", domain.PlanRequest{}, ""},
		{"bounds pass", domain.PlanRequest{MaxTrucksToUse: 50, ConfidenceThreshold: 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateSuggestions(context.Background(), tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSuggestionsDataUnavailable(t *testing.T) {
	svc := newTestService(memory.NewFailingSnapshotRepository(errors.New("connection refused")))

	result, err := svc.GenerateSuggestions(context.Background(), domain.PlanRequest{})
	if err != nil {
		t.Fatalf("fetch failures must surface inside the result, got error: %v", err)
	}
	if result.Success {
		t.Fatal("expected a failed result")
	}
	if !strings.Contains(result.Message, "Failed to fetch data") {
		t.Fatalf("message = %q", result.Message)
	}
	if result.Error != "connection refused" {
		t.Fatalf("error detail = %q", result.Error)
	}
	if result.RunID == "" {
		t.Fatal("failed runs still carry a run id")
	}
}

func TestGenerateSuggestionsAssignsRunID(t *testing.T) {
	svc := newTestService(memory.NewSnapshotRepository(minimalSnapshot()))

	first, err := svc.GenerateSuggestions(context.Background(), domain.PlanRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GenerateSuggestions(context.Background(), domain.PlanRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.RunID == "" || first.RunID == second.RunID {
		t.Fatalf("run ids must be unique and non-empty: %q vs %q", first.RunID, second.RunID)
	}
}

func TestGenerateSuggestionsRecoversFromPanic(t *testing.T) {
	// A nil planner dereference inside the run must come back as a failed
	// result, not a crash.
	cfg := testConfig()
	svc := NewTransferSuggestionService(
		memory.NewSnapshotRepository(minimalSnapshot()),
		nil,
		cache.NewNoopPlanCache(),
		cfg,
	)

	result, err := svc.GenerateSuggestions(context.Background(), domain.PlanRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected a failed result after panic")
	}
	if !strings.Contains(result.Message, "unexpected error") {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestGenerateSuggestionsBoundedConcurrency(t *testing.T) {
	svc := newTestService(memory.NewSnapshotRepository(minimalSnapshot()))

	// Saturate both slots, then a canceled context must fail to acquire.
	if err := svc.runs.Acquire(context.Background(), 2); err != nil {
		t.Fatalf("failed to saturate semaphore: %v", err)
	}
	defer svc.runs.Release(2)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.GenerateSuggestions(ctx, domain.PlanRequest{})
	if err == nil || !strings.Contains(err.Error(), "acquire planner slot") {
		t.Fatalf("error = %v, want a slot acquisition failure", err)
	}
}

func TestLatestEmptyCache(t *testing.T) {
	svc := newTestService(memory.NewSnapshotRepository(minimalSnapshot()))

	_, ok, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("noop cache must report no cached plan")
	}
}
