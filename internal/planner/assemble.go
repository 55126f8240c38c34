package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
)

// AssembleResult resolves display names, attaches each transfer to its
// product's route assignment and builds the per-product and per-route
// summaries. Transfer ids are synthetic and ordinal within the run.
func AssembleResult(
	candidates []TransferCandidate,
	assignments map[int64]map[string]RouteAssignment,
	products []domain.Product,
	warehouses []domain.WarehouseNode,
	now time.Time,
) ([]domain.TransferRecord, []domain.ProductSummary, []domain.RouteSummary) {
	productNames := make(map[int64]string, len(products))
	for _, p := range products {
		productNames[p.ID] = p.Name
	}
	warehouseNames := make(map[int64]string, len(warehouses))
	for _, w := range warehouses {
		warehouseNames[w.ID] = w.Name
	}

	records := make([]domain.TransferRecord, 0, len(candidates))
	for i, c := range candidates {
		record := domain.TransferRecord{
			TransferID:               fmt.Sprintf("T%04d", i+1),
			ProductID:                c.ProductID,
			ProductName:              nameOr(productNames, c.ProductID, "Product #%d"),
			ProductRecordID:          c.RecordID,
			OriginWarehouseID:        c.FromWarehouseID,
			OriginWarehouseName:      nameOr(warehouseNames, c.FromWarehouseID, "Warehouse #%d"),
			DestinationWarehouseID:   c.ToWarehouseID,
			DestinationWarehouseName: nameOr(warehouseNames, c.ToWarehouseID, "Warehouse #%d"),
			QuantityKg:               c.QuantityKg,
			SupplierID:               c.SupplierID,
			QualityClassification:    c.Quality,
			RegistrationDate:         c.RegistrationDate,
			ConfidenceScore:          c.Confidence,
			GeneratedTimestamp:       now,
			Status:                   "Pending",
		}

		if truck := firstRoute(assignments[c.ProductID]); truck != nil {
			record.AssignedTruckID = &truck.TruckID
			capacity := truck.CapacityKg
			load := truck.TotalLoadKg
			record.TruckCapacityKg = &capacity
			record.RouteTotalLoadKg = &load
		}

		records = append(records, record)
	}

	return records, productSummaries(records), routeSummaries(records)
}

// firstRoute picks the first assignment by route key, giving every transfer
// of a product the same stable truck binding.
func firstRoute(routes map[string]RouteAssignment) *RouteAssignment {
	if len(routes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(routes))
	for k := range routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	route := routes[keys[0]]
	return &route
}

func nameOr(names map[int64]string, id int64, fallback string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf(fallback, id)
}

func productSummaries(records []domain.TransferRecord) []domain.ProductSummary {
	type agg struct {
		totalKg   float64
		transfers int
		trucks    map[int64]bool
	}
	byProduct := make(map[int64]*agg)
	for _, r := range records {
		a := byProduct[r.ProductID]
		if a == nil {
			a = &agg{trucks: make(map[int64]bool)}
			byProduct[r.ProductID] = a
		}
		a.totalKg += r.QuantityKg
		a.transfers++
		if r.AssignedTruckID != nil {
			a.trucks[*r.AssignedTruckID] = true
		}
	}

	ids := make([]int64, 0, len(byProduct))
	for id := range byProduct {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	summaries := make([]domain.ProductSummary, 0, len(ids))
	for _, id := range ids {
		a := byProduct[id]
		summaries = append(summaries, domain.ProductSummary{
			ProductID:         id,
			TotalQuantityKg:   a.totalKg,
			NumberOfTransfers: a.transfers,
			TrucksRequired:    len(a.trucks),
		})
	}
	return summaries
}

func routeSummaries(records []domain.TransferRecord) []domain.RouteSummary {
	type routeKey struct {
		origin, destination int64
		truckID             int64
		hasTruck            bool
	}
	type agg struct {
		totalKg  float64
		records  int
		products map[int64]bool
	}
	byRoute := make(map[routeKey]*agg)
	for _, r := range records {
		key := routeKey{origin: r.OriginWarehouseID, destination: r.DestinationWarehouseID}
		if r.AssignedTruckID != nil {
			key.truckID = *r.AssignedTruckID
			key.hasTruck = true
		}
		a := byRoute[key]
		if a == nil {
			a = &agg{products: make(map[int64]bool)}
			byRoute[key] = a
		}
		a.totalKg += r.QuantityKg
		a.records++
		a.products[r.ProductID] = true
	}

	keys := make([]routeKey, 0, len(byRoute))
	for key := range byRoute {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].origin != keys[j].origin {
			return keys[i].origin < keys[j].origin
		}
		if keys[i].destination != keys[j].destination {
			return keys[i].destination < keys[j].destination
		}
		return keys[i].truckID < keys[j].truckID
	})

	summaries := make([]domain.RouteSummary, 0, len(keys))
	for _, key := range keys {
		a := byRoute[key]
		summary := domain.RouteSummary{
			OriginWarehouseID:      key.origin,
			DestinationWarehouseID: key.destination,
			RouteTotalKg:           a.totalKg,
			NumberOfRecords:        a.records,
			NumberOfProducts:       len(a.products),
		}
		if key.hasTruck {
			truckID := key.truckID
			summary.AssignedTruckID = &truckID
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
