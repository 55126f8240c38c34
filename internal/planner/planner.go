// Package planner implements the warehouse redistribution pipeline:
// demand-zone clustering, per-zone demand forecasting, surplus/deficit
// transfer matching with fallback generators, confidence filtering and
// per-product truck routing. A run reads one immutable snapshot and returns
// a suggestion plan; nothing is persisted or mutated.
package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/config"
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

type Planner struct {
	cfg config.PlannerConfig
}

func New(cfg config.PlannerConfig) *Planner {
	return &Planner{cfg: cfg}
}

// Run executes the full pipeline over one snapshot. It returns a structured
// result in every case: data problems come back as Success=false with a
// message, never as an error or panic.
func (p *Planner) Run(ctx context.Context, snap *domain.Snapshot, req domain.PlanRequest) *domain.PlanResult {
	maxTrucks := p.cfg.MaxTrucksToUse
	if req.MaxTrucksToUse > 0 {
		maxTrucks = req.MaxTrucksToUse
	}
	threshold := p.cfg.ConfidenceThreshold
	if req.ConfidenceThreshold > 0 {
		threshold = req.ConfidenceThreshold
	}

	if snap == nil || len(snap.Warehouses) == 0 {
		return failure("No warehouse data available", "data unavailable")
	}

	labels, err := ClusterBuyers(snap.Buyers, p.cfg.ClusterRadiusMeters, p.cfg.ClusterMinSamples)
	if err != nil {
		return failure("No buyer location data available for clustering", err.Error())
	}

	buyerZones := make(map[int64]int, len(snap.Buyers))
	for i, buyer := range snap.Buyers {
		buyerZones[buyer.ID] = labels[i]
	}
	zoneWarehouse := MapZonesToWarehouses(snap.Buyers, labels, snap.Warehouses)

	forecaster := &Forecaster{
		HorizonDays:   p.cfg.ForecastHorizonDays,
		MinDataPoints: p.cfg.MinForecastDataPoints,
	}
	forecasts := forecaster.Forecast(snap.Sales, buyerZones)

	chain := NewGeneratorChain(
		&ForecastGenerator{Matcher: &Matcher{
			ForecastWeight: p.cfg.ForecastWeight,
			NeedWeight:     p.cfg.NeedWeight,
			SurplusWeight:  p.cfg.SurplusWeight,
			FitWeight:      p.cfg.FitWeight,
			MinConfidence:  p.cfg.MinConfidence,
		}},
		&BalanceGenerator{
			ImbalanceThreshold: p.cfg.ImbalanceThreshold,
			Confidence:         p.cfg.BalanceConfidence,
		},
		&ForcedMinimumGenerator{
			MinSuggestions: p.cfg.MinTransferSuggestions,
			Confidence:     p.cfg.ForcedConfidence,
		},
	)
	candidates := chain.Generate(GeneratorInput{
		Forecasts:     forecasts,
		ZoneWarehouse: zoneWarehouse,
		Inventory:     snap.Inventory,
		Warehouses:    snap.Warehouses,
	})

	if len(candidates) == 0 {
		message := "No redistribution needed: inventory is balanced across warehouses"
		if len(snap.Inventory) == 0 {
			message = "No redistribution possible: no in-stock inventory available"
		}
		result := emptySuccess(message)
		result.Results = p.stats(0, 0, 0, maxTrucks, threshold)
		return result
	}

	candidates = FilterByConfidence(candidates, threshold, p.cfg.MinTransferSuggestions)

	assignments, totalProducts := p.routeProducts(ctx, candidates, snap, maxTrucks)

	records, productSummary, routeSummary := AssembleResult(
		candidates, assignments, snap.Products, snap.Warehouses, time.Now(),
	)

	totalVolume := 0.0
	for _, c := range candidates {
		totalVolume += c.QuantityKg
	}

	return &domain.PlanResult{
		Success:         true,
		Message:         fmt.Sprintf("Successfully generated %d transfer suggestions", len(records)),
		TransferRecords: records,
		ProductSummary:  productSummary,
		RouteSummary:    routeSummary,
		Results:         p.stats(totalProducts, len(records), totalVolume, maxTrucks, threshold),
	}
}

// routeProducts runs the routing optimizer for every product with surviving
// candidates, highest transfer count first. The loop respects the run
// deadline: once the context expires the optimizer degrades each remaining
// product to its forced assignment instead of solving.
func (p *Planner) routeProducts(ctx context.Context, candidates []TransferCandidate, snap *domain.Snapshot, maxTrucks int) (map[int64]map[string]RouteAssignment, int) {
	byProduct := make(map[int64][]TransferCandidate)
	for _, c := range candidates {
		byProduct[c.ProductID] = append(byProduct[c.ProductID], c)
	}

	productIDs := make([]int64, 0, len(byProduct))
	for id := range byProduct {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool {
		if len(byProduct[productIDs[i]]) != len(byProduct[productIDs[j]]) {
			return len(byProduct[productIDs[i]]) > len(byProduct[productIDs[j]])
		}
		return productIDs[i] < productIDs[j]
	})

	optimizer := &RoutingOptimizer{
		Policy:    DefaultSolverPolicy(p.cfg.SolveBudget),
		MaxTrucks: maxTrucks,
	}

	assignments := make(map[int64]map[string]RouteAssignment, len(productIDs))
	for _, productID := range productIDs {
		routes := optimizer.PlanProduct(ctx, productID, byProduct[productID], snap.Warehouses, snap.Trucks)
		if len(routes) > 0 {
			assignments[productID] = routes
		}
	}

	log.Info().Int("products", len(productIDs)).Int("routed", len(assignments)).Msg("route optimization done")
	return assignments, len(productIDs)
}

func (p *Planner) stats(totalProducts, totalTransfers int, totalVolume float64, maxTrucks int, threshold float64) *domain.PlanStats {
	return &domain.PlanStats{
		TotalProducts:  totalProducts,
		TotalTransfers: totalTransfers,
		TotalVolume:    totalVolume,
		ParametersUsed: domain.PlanParameters{
			MaxTrucksToUse:      maxTrucks,
			ForecastDays:        p.cfg.ForecastHorizonDays,
			ClusterRadiusMeters: p.cfg.ClusterRadiusMeters,
			ClusterMinSamples:   p.cfg.ClusterMinSamples,
			ConfidenceThreshold: threshold,
		},
	}
}

func failure(message, errText string) *domain.PlanResult {
	return &domain.PlanResult{
		Success:         false,
		Message:         message,
		Error:           errText,
		TransferRecords: []domain.TransferRecord{},
		ProductSummary:  []domain.ProductSummary{},
		RouteSummary:    []domain.RouteSummary{},
	}
}

func emptySuccess(message string) *domain.PlanResult {
	return &domain.PlanResult{
		Success:         true,
		Message:         message,
		TransferRecords: []domain.TransferRecord{},
		ProductSummary:  []domain.ProductSummary{},
		RouteSummary:    []domain.RouteSummary{},
	}
}
