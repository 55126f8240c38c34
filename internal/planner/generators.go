package planner

import (
	"math"
	"sort"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

// GeneratorInput carries everything a transfer generator may consult.
type GeneratorInput struct {
	Forecasts     []ForecastRecord
	ZoneWarehouse map[int]int64
	Inventory     []domain.InventoryRecord
	Warehouses    []domain.WarehouseNode
}

// TransferGenerator is one stage of the candidate generation chain. A stage
// receives the candidates accumulated so far and returns the (possibly
// extended) set; stages decide themselves whether they need to act.
type TransferGenerator interface {
	Name() string
	Generate(in GeneratorInput, existing []TransferCandidate) []TransferCandidate
}

// GeneratorChain invokes its generators in priority order. The chain is
// exhausted rather than short-circuited: later stages only fire when earlier
// ones left the result empty or below the minimum.
type GeneratorChain struct {
	generators []TransferGenerator
}

func NewGeneratorChain(generators ...TransferGenerator) *GeneratorChain {
	return &GeneratorChain{generators: generators}
}

func (c *GeneratorChain) Generate(in GeneratorInput) []TransferCandidate {
	var candidates []TransferCandidate
	for _, g := range c.generators {
		before := len(candidates)
		candidates = g.Generate(in, candidates)
		if added := len(candidates) - before; added > 0 {
			log.Info().Str("generator", g.Name()).Int("added", added).Msg("transfer generator produced candidates")
		}
	}
	return candidates
}

// ForecastGenerator produces candidates from forecasted surplus/deficit
// deltas. It is the primary stage and always runs.
type ForecastGenerator struct {
	Matcher *Matcher
}

func (g *ForecastGenerator) Name() string { return "forecast" }

func (g *ForecastGenerator) Generate(in GeneratorInput, existing []TransferCandidate) []TransferCandidate {
	if len(existing) > 0 {
		return existing
	}
	return g.Matcher.Candidates(in.Forecasts, in.Inventory, in.ZoneWarehouse)
}

// BalanceGenerator levels per-product stock across warehouses when the
// forecast stage found nothing. Warehouses more than ImbalanceThreshold above
// the network average for a product ship FIFO records to warehouses the same
// margin below it.
type BalanceGenerator struct {
	ImbalanceThreshold float64
	Confidence         float64
}

func (g *BalanceGenerator) Name() string { return "warehouse-balance" }

func (g *BalanceGenerator) Generate(in GeneratorInput, existing []TransferCandidate) []TransferCandidate {
	if len(existing) > 0 {
		return existing
	}

	stock := make(map[warehouseProduct]float64)
	products := make(map[int64]bool)
	for _, rec := range in.Inventory {
		stock[warehouseProduct{warehouseID: rec.WarehouseID, productID: rec.ProductID}] += rec.QuantityKg
		products[rec.ProductID] = true
	}

	productIDs := make([]int64, 0, len(products))
	for id := range products {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	fifo := fifoIndex(in.Inventory)
	consumed := make(map[int64]bool)

	var candidates []TransferCandidate
	for _, productID := range productIDs {
		type level struct {
			warehouseID int64
			totalKg     float64
		}
		var levels []level
		var sum float64
		for key, qty := range stock {
			if key.productID != productID {
				continue
			}
			levels = append(levels, level{warehouseID: key.warehouseID, totalKg: qty})
			sum += qty
		}
		if len(levels) == 0 {
			continue
		}
		avg := sum / float64(len(levels))

		var surpluses, deficits []level
		for _, l := range levels {
			switch {
			case l.totalKg > avg*(1+g.ImbalanceThreshold):
				surpluses = append(surpluses, l)
			case l.totalKg < avg*(1-g.ImbalanceThreshold):
				deficits = append(deficits, l)
			}
		}
		if len(surpluses) == 0 || len(deficits) == 0 {
			continue
		}
		sort.Slice(surpluses, func(i, j int) bool {
			if surpluses[i].totalKg != surpluses[j].totalKg {
				return surpluses[i].totalKg > surpluses[j].totalKg
			}
			return surpluses[i].warehouseID < surpluses[j].warehouseID
		})
		sort.Slice(deficits, func(i, j int) bool {
			if deficits[i].totalKg != deficits[j].totalKg {
				return deficits[i].totalKg < deficits[j].totalKg
			}
			return deficits[i].warehouseID < deficits[j].warehouseID
		})

		for _, surplus := range surpluses {
			excess := surplus.totalKg - avg
			records := fifo[warehouseProduct{warehouseID: surplus.warehouseID, productID: productID}]

			for _, deficit := range deficits {
				if excess <= 0 {
					break
				}
				needed := avg - deficit.totalKg

				for _, rec := range records {
					if excess <= 0 || needed <= 0 {
						break
					}
					if consumed[rec.RecordID] {
						continue
					}
					if rec.QuantityKg > math.Min(excess, needed) {
						continue
					}
					candidates = append(candidates, TransferCandidate{
						RecordID:         rec.RecordID,
						ProductID:        productID,
						FromWarehouseID:  surplus.warehouseID,
						ToWarehouseID:    deficit.warehouseID,
						QuantityKg:       rec.QuantityKg,
						SupplierID:       rec.SupplierID,
						Quality:          rec.Quality,
						RegistrationDate: rec.RegistrationDate,
						Confidence:       g.Confidence,
					})
					consumed[rec.RecordID] = true
					excess -= rec.QuantityKg
					needed -= rec.QuantityKg
				}
			}
		}
	}

	return candidates
}

// ForcedMinimumGenerator tops the result up to the configured minimum by
// round-robining records from the better-stocked half of the network into the
// worse-stocked half. It exists purely to honor the minimum-count guarantee
// and marks its output with a lower fixed confidence.
type ForcedMinimumGenerator struct {
	MinSuggestions int
	Confidence     float64
}

func (g *ForcedMinimumGenerator) Name() string { return "forced-minimum" }

func (g *ForcedMinimumGenerator) Generate(in GeneratorInput, existing []TransferCandidate) []TransferCandidate {
	needed := g.MinSuggestions - len(existing)
	if needed <= 0 || len(in.Inventory) == 0 {
		return existing
	}

	type level struct {
		warehouseID int64
		totalKg     float64
	}
	totals := make(map[int64]float64)
	for _, rec := range in.Inventory {
		totals[rec.WarehouseID] += rec.QuantityKg
	}
	levels := make([]level, 0, len(totals))
	for id, qty := range totals {
		levels = append(levels, level{warehouseID: id, totalKg: qty})
	}
	if len(levels) < 2 {
		return existing
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].totalKg != levels[j].totalKg {
			return levels[i].totalKg > levels[j].totalKg
		}
		return levels[i].warehouseID < levels[j].warehouseID
	})

	half := len(levels) / 2
	sources := levels[:half]
	dests := levels[len(levels)-half:]

	consumed := make(map[int64]bool, len(existing))
	for _, c := range existing {
		consumed[c.RecordID] = true
	}

	recordsByWarehouse := make(map[int64][]domain.InventoryRecord)
	for _, rec := range in.Inventory {
		recordsByWarehouse[rec.WarehouseID] = append(recordsByWarehouse[rec.WarehouseID], rec)
	}
	for _, records := range recordsByWarehouse {
		sort.SliceStable(records, func(i, j int) bool {
			if !records[i].RegistrationDate.Equal(records[j].RegistrationDate) {
				return records[i].RegistrationDate.Before(records[j].RegistrationDate)
			}
			return records[i].RecordID < records[j].RecordID
		})
	}

	out := existing
	used := 0
	for _, source := range sources {
		if used >= needed {
			break
		}
		for _, rec := range recordsByWarehouse[source.warehouseID] {
			if used >= needed {
				break
			}
			if consumed[rec.RecordID] {
				continue
			}
			dest := dests[used%len(dests)]
			if dest.warehouseID == source.warehouseID {
				continue
			}
			out = append(out, TransferCandidate{
				RecordID:         rec.RecordID,
				ProductID:        rec.ProductID,
				FromWarehouseID:  source.warehouseID,
				ToWarehouseID:    dest.warehouseID,
				QuantityKg:       rec.QuantityKg,
				SupplierID:       rec.SupplierID,
				Quality:          rec.Quality,
				RegistrationDate: rec.RegistrationDate,
				Confidence:       g.Confidence,
			})
			consumed[rec.RecordID] = true
			used++
		}
	}

	return out
}
