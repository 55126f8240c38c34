package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/cache"
	"github.com/andresuchdata/redistribution-planner/internal/config"
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/andresuchdata/redistribution-planner/internal/planner"
	"github.com/andresuchdata/redistribution-planner/internal/repository/memory"
	"github.com/andresuchdata/redistribution-planner/internal/service"
	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.PlannerConfig{
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

	snap := &domain.Snapshot{
		Warehouses: []domain.WarehouseNode{
			{ID: 1, Name: "North", Latitude: 0, Longitude: 0},
			{ID: 2, Name: "South", Latitude: 1, Longitude: 1},
		},
		Buyers: []domain.BuyerLocation{
			{ID: 100, Latitude: 0.00, Longitude: 0.00},
			{ID: 101, Latitude: 0.01, Longitude: 0.00},
			{ID: 102, Latitude: 0.00, Longitude: 0.01},
		},
		Trucks: []domain.Truck{{ID: 1, CapacityKg: 500}},
	}

	svc := service.NewTransferSuggestionService(
		memory.NewSnapshotRepository(snap),
		planner.New(cfg),
		cache.NewNoopPlanCache(),
		cfg,
	)

	router := gin.New()
	handler := NewTransferHandler(svc)
	router.POST("/api/v1/transfer_suggestions", handler.GenerateSuggestions)
	router.GET("/api/v1/transfer_suggestions/latest", handler.GetLatest)
	return router
}

func TestGenerateSuggestionsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfer_suggestions", strings.NewReader(`{"max_trucks_to_use": 5}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result domain.PlanResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected a run id in the response")
	}
	if result.TransferRecords == nil {
		t.Fatal("expected a non-null transfer list")
	}
}

func TestGenerateSuggestionsEndpointRejectsBadRequest(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transfer_suggestions", strings.NewReader(`{"max_trucks_to_use": 99}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestGetLatestEndpointEmptyCache(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transfer_suggestions/latest", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}
