package planner

import (
	"math"
	"sort"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

// Matcher turns forecasted demand and current stock into concrete
// whole-record transfer candidates. Weights shape the candidate confidence
// score; they are tunables, not derived quantities.
type Matcher struct {
	ForecastWeight float64
	NeedWeight     float64
	SurplusWeight  float64
	FitWeight      float64
	MinConfidence  float64
}

type warehouseProduct struct {
	warehouseID int64
	productID   int64
}

type deltaEntry struct {
	key        warehouseProduct
	deltaKg    float64
	confidence float64
}

// Candidates computes per (warehouse, product) surplus/deficit deltas and
// greedily matches deficit needs against surplus inventory, oldest records
// first. Records are moved whole or not at all, and each record is consumed
// at most once per run.
func (m *Matcher) Candidates(forecasts []ForecastRecord, inventory []domain.InventoryRecord, zoneWarehouse map[int]int64) []TransferCandidate {
	demand := make(map[warehouseProduct]*struct {
		totalKg float64
		confSum float64
		n       int
	})
	for _, fc := range forecasts {
		warehouseID, ok := zoneWarehouse[fc.ZoneID]
		if !ok {
			continue
		}
		key := warehouseProduct{warehouseID: warehouseID, productID: fc.ProductID}
		d := demand[key]
		if d == nil {
			d = &struct {
				totalKg float64
				confSum float64
				n       int
			}{}
			demand[key] = d
		}
		d.totalKg += fc.DemandKg
		d.confSum += fc.Confidence
		d.n++
	}

	stock := make(map[warehouseProduct]float64)
	for _, rec := range inventory {
		stock[warehouseProduct{warehouseID: rec.WarehouseID, productID: rec.ProductID}] += rec.QuantityKg
	}

	deltas := make(map[warehouseProduct]deltaEntry)
	for key, d := range demand {
		deltas[key] = deltaEntry{key: key, deltaKg: stock[key] - d.totalKg, confidence: d.confSum / float64(d.n)}
	}
	for key, qty := range stock {
		if _, seen := deltas[key]; !seen {
			deltas[key] = deltaEntry{key: key, deltaKg: qty}
		}
	}

	var deficits, surpluses []deltaEntry
	for _, entry := range deltas {
		switch {
		case entry.deltaKg < 0:
			deficits = append(deficits, entry)
		case entry.deltaKg > 0:
			surpluses = append(surpluses, entry)
		}
	}
	sort.Slice(deficits, func(i, j int) bool {
		if deficits[i].key.productID != deficits[j].key.productID {
			return deficits[i].key.productID < deficits[j].key.productID
		}
		return deficits[i].key.warehouseID < deficits[j].key.warehouseID
	})

	log.Info().Int("surplus", len(surpluses)).Int("deficit", len(deficits)).Msg("inventory delta computed")

	surplusByProduct := make(map[int64][]deltaEntry)
	for _, s := range surpluses {
		surplusByProduct[s.key.productID] = append(surplusByProduct[s.key.productID], s)
	}
	for _, group := range surplusByProduct {
		sort.Slice(group, func(i, j int) bool {
			if group[i].deltaKg != group[j].deltaKg {
				return group[i].deltaKg > group[j].deltaKg
			}
			return group[i].key.warehouseID < group[j].key.warehouseID
		})
	}

	fifo := fifoIndex(inventory)
	surplusLeft := make(map[warehouseProduct]float64, len(surpluses))
	for _, s := range surpluses {
		surplusLeft[s.key] = s.deltaKg
	}
	consumed := make(map[int64]bool)

	var candidates []TransferCandidate
	for _, deficit := range deficits {
		needKg := math.Abs(deficit.deltaKg)
		remaining := needKg

		for _, surplus := range surplusByProduct[deficit.key.productID] {
			if remaining <= 0 {
				break
			}
			if surplus.key.warehouseID == deficit.key.warehouseID {
				continue
			}

			for _, rec := range fifo[surplus.key] {
				if remaining <= 0 {
					break
				}
				if consumed[rec.RecordID] {
					continue
				}
				available := surplusLeft[surplus.key]
				if rec.QuantityKg > remaining || rec.QuantityKg > available {
					continue
				}

				candidates = append(candidates, TransferCandidate{
					RecordID:         rec.RecordID,
					ProductID:        rec.ProductID,
					FromWarehouseID:  surplus.key.warehouseID,
					ToWarehouseID:    deficit.key.warehouseID,
					QuantityKg:       rec.QuantityKg,
					SupplierID:       rec.SupplierID,
					Quality:          rec.Quality,
					RegistrationDate: rec.RegistrationDate,
					Confidence: m.score(
						(deficit.confidence+surplus.confidence)/2,
						needKg, available, rec.QuantityKg,
					),
				})
				consumed[rec.RecordID] = true
				remaining -= rec.QuantityKg
				surplusLeft[surplus.key] = available - rec.QuantityKg
			}
		}
	}

	log.Info().Int("candidates", len(candidates)).Msg("transfer candidates generated")
	return candidates
}

func (m *Matcher) score(forecastConfidence, needKg, surplusKg, recordKg float64) float64 {
	score := m.ForecastWeight*forecastConfidence +
		m.NeedWeight*math.Min(needKg/100.0, 1.0) +
		m.SurplusWeight*math.Min(surplusKg/100.0, 1.0) +
		m.FitWeight*math.Min(recordKg/needKg, 1.0)
	return clamp01(math.Max(m.MinConfidence, score))
}

// fifoIndex groups inventory per (warehouse, product) in oldest-first order.
func fifoIndex(inventory []domain.InventoryRecord) map[warehouseProduct][]domain.InventoryRecord {
	idx := make(map[warehouseProduct][]domain.InventoryRecord)
	for _, rec := range inventory {
		key := warehouseProduct{warehouseID: rec.WarehouseID, productID: rec.ProductID}
		idx[key] = append(idx[key], rec)
	}
	for _, records := range idx {
		sort.SliceStable(records, func(i, j int) bool {
			if !records[i].RegistrationDate.Equal(records[j].RegistrationDate) {
				return records[i].RegistrationDate.Before(records[j].RegistrationDate)
			}
			return records[i].RecordID < records[j].RecordID
		})
	}
	return idx
}
