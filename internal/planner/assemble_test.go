package planner

import (
	"testing"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
)

func TestAssembleResult(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	registered := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	candidates := []TransferCandidate{
		{
			RecordID: 201, ProductID: 10, FromWarehouseID: 1, ToWarehouseID: 2,
			QuantityKg: 40, SupplierID: 5, Quality: "Good",
			RegistrationDate: registered, Confidence: 0.7,
		},
		{
			RecordID: 202, ProductID: 10, FromWarehouseID: 1, ToWarehouseID: 2,
			QuantityKg: 60, SupplierID: 5, Quality: "Moderate",
			RegistrationDate: registered, Confidence: 0.8,
		},
		{
			RecordID: 203, ProductID: 11, FromWarehouseID: 2, ToWarehouseID: 1,
			QuantityKg: 25, SupplierID: 6, Quality: "Good",
			RegistrationDate: registered, Confidence: 0.9,
		},
	}
	assignments := map[int64]map[string]RouteAssignment{
		10: {"vrp_route_0": {TruckID: 3, CapacityKg: 500, TotalLoadKg: 100}},
	}
	products := []domain.Product{{ID: 10, Name: "Tomatoes"}}
	warehouses := []domain.WarehouseNode{
		{ID: 1, Name: "North Hub"},
		{ID: 2, Name: "South Hub"},
	}

	records, productSummary, routeSummary := AssembleResult(candidates, assignments, products, warehouses, now)

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.TransferID != "T0001" {
		t.Fatalf("transfer id = %q, want T0001", first.TransferID)
	}
	if first.ProductName != "Tomatoes" {
		t.Fatalf("product name = %q, want Tomatoes", first.ProductName)
	}
	if first.OriginWarehouseName != "North Hub" || first.DestinationWarehouseName != "South Hub" {
		t.Fatalf("warehouse names = %q -> %q", first.OriginWarehouseName, first.DestinationWarehouseName)
	}
	if first.Status != "Pending" {
		t.Fatalf("status = %q, want Pending", first.Status)
	}
	if !first.GeneratedTimestamp.Equal(now) {
		t.Fatalf("timestamp = %v, want %v", first.GeneratedTimestamp, now)
	}
	if first.AssignedTruckID == nil || *first.AssignedTruckID != 3 {
		t.Fatalf("truck binding = %v, want truck 3", first.AssignedTruckID)
	}
	if first.TruckCapacityKg == nil || *first.TruckCapacityKg != 500 {
		t.Fatalf("truck capacity = %v, want 500", first.TruckCapacityKg)
	}

	// Product 11 has no route assignment and no master-data name.
	third := records[2]
	if third.TransferID != "T0003" {
		t.Fatalf("transfer id = %q, want T0003", third.TransferID)
	}
	if third.ProductName != "Product #11" {
		t.Fatalf("fallback product name = %q, want Product #11", third.ProductName)
	}
	if third.AssignedTruckID != nil {
		t.Fatalf("unrouted transfer carries truck %d", *third.AssignedTruckID)
	}

	if len(productSummary) != 2 {
		t.Fatalf("expected 2 product summaries, got %d", len(productSummary))
	}
	p10 := productSummary[0]
	if p10.ProductID != 10 || p10.TotalQuantityKg != 100 || p10.NumberOfTransfers != 2 || p10.TrucksRequired != 1 {
		t.Fatalf("product 10 summary = %+v", p10)
	}

	if len(routeSummary) != 2 {
		t.Fatalf("expected 2 route summaries, got %d", len(routeSummary))
	}
	r0 := routeSummary[0]
	if r0.OriginWarehouseID != 1 || r0.DestinationWarehouseID != 2 {
		t.Fatalf("first route = %d -> %d, want 1 -> 2", r0.OriginWarehouseID, r0.DestinationWarehouseID)
	}
	if r0.RouteTotalKg != 100 || r0.NumberOfRecords != 2 || r0.NumberOfProducts != 1 {
		t.Fatalf("first route summary = %+v", r0)
	}
}

func TestAssembleResultEmpty(t *testing.T) {
	records, productSummary, routeSummary := AssembleResult(nil, nil, nil, nil, time.Now())
	if len(records) != 0 || len(productSummary) != 0 || len(routeSummary) != 0 {
		t.Fatal("expected empty output for empty input")
	}
}
