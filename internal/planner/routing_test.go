package planner

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
)

var routingWarehouses = []domain.WarehouseNode{
	{ID: 1, Name: "North", Latitude: 0.0, Longitude: 0.0},
	{ID: 2, Name: "South", Latitude: 1.0, Longitude: 1.0},
	{ID: 3, Name: "East", Latitude: 0.0, Longitude: 2.0},
}

func testOptimizer(maxTrucks int) *RoutingOptimizer {
	return &RoutingOptimizer{
		Policy:    DefaultSolverPolicy(time.Second),
		MaxTrucks: maxTrucks,
	}
}

func transfer(recordID int64, from, to int64, qty float64) TransferCandidate {
	return TransferCandidate{
		RecordID:        recordID,
		ProductID:       10,
		FromWarehouseID: from,
		ToWarehouseID:   to,
		QuantityKg:      qty,
	}
}

func TestPlanProductSolvesWithinFleet(t *testing.T) {
	trucks := []domain.Truck{{ID: 1, CapacityKg: 500}, {ID: 2, CapacityKg: 500}}
	candidates := []TransferCandidate{
		transfer(101, 1, 2, 200),
		transfer(102, 1, 3, 150),
	}

	routes := testOptimizer(10).PlanProduct(context.Background(), 10, candidates, routingWarehouses, trucks)
	if len(routes) == 0 {
		t.Fatal("expected route assignments")
	}

	total := 0.0
	for key, a := range routes {
		if !strings.HasPrefix(key, "vrp_route_") {
			t.Fatalf("route key = %q, want vrp_route prefix", key)
		}
		if a.TruckID == 0 || a.CapacityKg != 500 {
			t.Fatalf("assignment %q not bound to a fleet truck: %+v", key, a)
		}
		total += a.TotalLoadKg
	}
	if math.Abs(total-350) > 1e-6 {
		t.Fatalf("planned load = %.1f, want the full 350", total)
	}
}

func TestPlanProductScalesDemandToFleetCapacity(t *testing.T) {
	// 500kg must move but the fleet can carry only 200kg; the instance is
	// scaled down instead of failing.
	trucks := []domain.Truck{{ID: 1, CapacityKg: 100}, {ID: 2, CapacityKg: 100}}
	candidates := []TransferCandidate{transfer(101, 1, 2, 500)}

	routes := testOptimizer(10).PlanProduct(context.Background(), 10, candidates, routingWarehouses, trucks)
	if len(routes) != 2 {
		t.Fatalf("expected both trucks used, got %d assignments", len(routes))
	}

	total := 0.0
	for key, a := range routes {
		if !strings.HasPrefix(key, "vrp_route_") {
			t.Fatalf("route key = %q, want vrp_route prefix", key)
		}
		if a.TotalLoadKg > a.CapacityKg+1e-6 {
			t.Fatalf("assignment %q overloads its truck: %.1f > %.1f", key, a.TotalLoadKg, a.CapacityKg)
		}
		total += a.TotalLoadKg
	}
	if math.Abs(total-200) > 1e-6 {
		t.Fatalf("planned load = %.1f, want scaled down to fleet capacity 200", total)
	}
}

func TestPlanProductSplitsOversizedNode(t *testing.T) {
	// One destination needs 250kg against 100kg trucks: the visit splits
	// into parts that each fit a vehicle.
	trucks := []domain.Truck{
		{ID: 1, CapacityKg: 100},
		{ID: 2, CapacityKg: 100},
		{ID: 3, CapacityKg: 100},
	}
	candidates := []TransferCandidate{transfer(101, 1, 2, 250)}

	routes := testOptimizer(10).PlanProduct(context.Background(), 10, candidates, routingWarehouses, trucks)
	if len(routes) != 3 {
		t.Fatalf("expected 3 trucks for 250kg in 100kg splits, got %d", len(routes))
	}
	for key := range routes {
		if !strings.HasPrefix(key, "vrp_route_") {
			t.Fatalf("route key = %q, want vrp_route prefix", key)
		}
	}
}

func TestPlanProductHonorsMaxTrucks(t *testing.T) {
	trucks := []domain.Truck{
		{ID: 1, CapacityKg: 100},
		{ID: 2, CapacityKg: 100},
		{ID: 3, CapacityKg: 100},
	}
	candidates := []TransferCandidate{transfer(101, 1, 2, 500)}

	routes := testOptimizer(1).PlanProduct(context.Background(), 10, candidates, routingWarehouses, trucks)
	if len(routes) != 1 {
		t.Fatalf("expected a single truck under max_trucks=1, got %d", len(routes))
	}
	for _, a := range routes {
		if a.TruckID != 1 {
			t.Fatalf("truck = %d, want the first fleet truck", a.TruckID)
		}
	}
}

func TestPlanProductNoTrucks(t *testing.T) {
	candidates := []TransferCandidate{transfer(101, 1, 2, 100)}
	routes := testOptimizer(10).PlanProduct(context.Background(), 10, candidates, routingWarehouses, nil)
	if routes != nil {
		t.Fatalf("expected nil without a fleet, got %v", routes)
	}
}

func TestPlanProductCanceledContextForcesAssignment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trucks := []domain.Truck{{ID: 1, CapacityKg: 500}, {ID: 2, CapacityKg: 500}}
	candidates := []TransferCandidate{
		transfer(101, 1, 2, 1500),
		transfer(102, 1, 3, 1000),
	}

	routes := testOptimizer(10).PlanProduct(ctx, 10, candidates, routingWarehouses, trucks)
	if len(routes) != 2 {
		t.Fatalf("expected a forced assignment sized 2500/1000 -> 2 trucks, got %d", len(routes))
	}
	for key, a := range routes {
		if !strings.HasPrefix(key, "forced_route_") {
			t.Fatalf("route key = %q, want forced_route prefix", key)
		}
		if math.Abs(a.TotalLoadKg-1250) > 1e-6 {
			t.Fatalf("forced load = %.1f, want an even 1250 split", a.TotalLoadKg)
		}
	}
}

func TestPlanProductDegenerateNetZero(t *testing.T) {
	// A circular swap nets every warehouse to zero; the optimizer still
	// emits an assignment instead of dropping the product.
	trucks := []domain.Truck{{ID: 1, CapacityKg: 500}}
	candidates := []TransferCandidate{
		transfer(101, 1, 2, 100),
		transfer(102, 2, 1, 100),
	}

	routes := testOptimizer(10).PlanProduct(context.Background(), 10, candidates, routingWarehouses, trucks)
	if len(routes) != 1 {
		t.Fatalf("expected one forced assignment, got %d", len(routes))
	}
	for key := range routes {
		if !strings.HasPrefix(key, "forced_route_") {
			t.Fatalf("route key = %q, want forced_route prefix", key)
		}
	}
}

func TestSolveStrategiesCoverSimpleInstance(t *testing.T) {
	problem := &routingProblem{
		nodes: []routeNode{
			{warehouseID: 2, x: 1000, y: 0, demandKg: 60},
			{warehouseID: 3, x: 0, y: 1000, demandKg: 40},
		},
		capacities: []float64{100, 100},
	}

	for _, strategy := range DefaultSolverPolicy(time.Second).Strategies {
		routes, err := strategy.Solve(problem)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", strategy.Name(), err)
		}
		seen := 0
		for _, nodes := range routes {
			seen += len(nodes)
		}
		if seen != 2 {
			t.Fatalf("%s: %d nodes routed, want 2", strategy.Name(), seen)
		}
	}
}
