package planner

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

// z-score of the 80% central prediction interval.
const intervalZ = 1.2816

// Forecaster predicts per (product, zone) demand over a fixed horizon and
// scores each forecast with a [0,1] confidence blending data volume, series
// variance and prediction-interval width.
type Forecaster struct {
	HorizonDays   int
	MinDataPoints int
}

type groupKey struct {
	productID int64
	zoneID    int
}

// Forecast aggregates completed sales by (product, zone) and day, then
// forecasts each group. Sales from outlier zones or from buyers without a
// zone label are ignored. Groups with fewer than two observed days are
// skipped. Output is ordered by product then zone.
func (f *Forecaster) Forecast(sales []domain.SaleRecord, buyerZones map[int64]int) []ForecastRecord {
	daily := make(map[groupKey]map[time.Time]float64)

	for _, sale := range sales {
		zone, ok := buyerZones[sale.BuyerID]
		if !ok || zone == Outlier {
			continue
		}
		key := groupKey{productID: sale.ProductID, zoneID: zone}
		day := sale.OrderDate.UTC().Truncate(24 * time.Hour)
		if daily[key] == nil {
			daily[key] = make(map[time.Time]float64)
		}
		daily[key][day] += sale.QuantityKg
	}

	keys := make([]groupKey, 0, len(daily))
	for key := range daily {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].productID != keys[j].productID {
			return keys[i].productID < keys[j].productID
		}
		return keys[i].zoneID < keys[j].zoneID
	})

	var out []ForecastRecord
	skipped := 0
	for _, key := range keys {
		series := sortedSeries(daily[key])
		if len(series) < 2 {
			skipped++
			continue
		}
		demand, confidence := f.forecastGroup(key, series)
		out = append(out, ForecastRecord{
			ProductID:  key.productID,
			ZoneID:     key.zoneID,
			DemandKg:   math.Max(0, demand),
			Confidence: clamp01(confidence),
		})
	}

	log.Info().Int("forecasts", len(out)).Int("skipped", skipped).Msg("demand forecasting done")
	return out
}

type dailyPoint struct {
	day time.Time
	qty float64
}

func sortedSeries(byDay map[time.Time]float64) []dailyPoint {
	series := make([]dailyPoint, 0, len(byDay))
	for day, qty := range byDay {
		series = append(series, dailyPoint{day: day, qty: qty})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].day.Before(series[j].day) })
	return series
}

func (f *Forecaster) forecastGroup(key groupKey, series []dailyPoint) (demand, confidence float64) {
	n := len(series)
	quality := math.Min(float64(n)/float64(f.MinDataPoints), 1.0)

	mean, std := meanStd(series)
	cv := std / (mean + 1e-6)
	variancePenalty := math.Max(0.3, 1.0/(1.0+cv))

	if n < f.MinDataPoints {
		// Simple average for sparse data.
		return mean * float64(f.HorizonDays), 0.4 + 0.3*quality + 0.3*variancePenalty
	}

	model, err := fitSeasonal(series)
	if err != nil {
		// Model failure degrades this group to the average path, never the run.
		log.Debug().Err(err).Int64("product", key.productID).Int("zone", key.zoneID).
			Msg("seasonal fit failed, using average")
		return mean * float64(f.HorizonDays), 0.3 + 0.3*quality + 0.4*variancePenalty
	}

	lastDay := series[n-1].day
	var total, widthSum float64
	for d := 1; d <= f.HorizonDays; d++ {
		day := lastDay.AddDate(0, 0, d)
		yhat := model.predict(day)
		total += yhat
		widthSum += 2 * intervalZ * model.sigma
	}

	meanForecast := total / float64(f.HorizonDays)
	uncertaintyRatio := (widthSum / float64(f.HorizonDays)) / (math.Abs(meanForecast) + 1e-6)
	uncertaintyScore := math.Max(0.2, 1.0-math.Min(uncertaintyRatio/2.0, 0.8))

	confidence = 0.3 + 0.4*uncertaintyScore + 0.2*quality + 0.1*variancePenalty
	return total, confidence
}

// seasonalModel is an additive weekly-seasonal trend model: a least-squares
// linear trend over day indices plus per-weekday mean residuals. The residual
// spread after removing trend and seasonality drives the prediction interval.
type seasonalModel struct {
	origin    time.Time
	intercept float64
	slope     float64
	seasonal  [7]float64
	sigma     float64
}

func fitSeasonal(series []dailyPoint) (*seasonalModel, error) {
	n := len(series)
	origin := series[0].day

	// Linear trend on day offsets.
	var sumT, sumY, sumTT, sumTY float64
	for _, p := range series {
		t := dayOffset(origin, p.day)
		sumT += t
		sumY += p.qty
		sumTT += t * t
		sumTY += t * p.qty
	}
	denom := float64(n)*sumTT - sumT*sumT
	if denom <= 0 {
		return nil, fmt.Errorf("degenerate day-index regressor over %d points", n)
	}
	slope := (float64(n)*sumTY - sumT*sumY) / denom
	intercept := (sumY - slope*sumT) / float64(n)

	m := &seasonalModel{origin: origin, intercept: intercept, slope: slope}

	// Weekly seasonality from trend residuals.
	var wsum, wcount [7]float64
	for _, p := range series {
		w := int(p.day.Weekday())
		r := p.qty - (intercept + slope*dayOffset(origin, p.day))
		wsum[w] += r
		wcount[w]++
	}
	for w := range m.seasonal {
		if wcount[w] > 0 {
			m.seasonal[w] = wsum[w] / wcount[w]
		}
	}

	// Residual spread after both components.
	var ss float64
	for _, p := range series {
		e := p.qty - m.predict(p.day)
		ss += e * e
	}
	m.sigma = math.Sqrt(ss / float64(n-1))

	if !isFinite(m.slope) || !isFinite(m.intercept) || !isFinite(m.sigma) {
		return nil, fmt.Errorf("non-finite fit over %d points", n)
	}
	return m, nil
}

func (m *seasonalModel) predict(day time.Time) float64 {
	return m.intercept + m.slope*dayOffset(m.origin, day) + m.seasonal[int(day.Weekday())]
}

func dayOffset(origin, day time.Time) float64 {
	return day.Sub(origin).Hours() / 24
}

func meanStd(series []dailyPoint) (mean, std float64) {
	n := float64(len(series))
	for _, p := range series {
		mean += p.qty
	}
	mean /= n

	if len(series) < 2 {
		return mean, 0
	}
	var ss float64
	for _, p := range series {
		d := p.qty - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
