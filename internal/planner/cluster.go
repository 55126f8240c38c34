package planner

import (
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

// ClusterBuyers groups buyer locations into demand zones with DBSCAN over
// great-circle distance. The radius is given in meters and converted to an
// angular radius on the unit sphere. Returned labels are parallel to the
// input slice: zone ids start at 0, Outlier marks noise points.
//
// The scan visits points in input order and expands neighborhoods in index
// order, so identical input always yields identical labels.
func ClusterBuyers(buyers []domain.BuyerLocation, radiusMeters float64, minSamples int) ([]int, error) {
	if len(buyers) == 0 {
		return nil, ErrInsufficientClusteringData
	}

	eps := radiusMeters / earthRadiusMeters
	if minSamples < 1 {
		minSamples = 1
	}

	neighbors := neighborIndex(buyers, eps)

	const unvisited = -2
	labels := make([]int, len(buyers))
	for i := range labels {
		labels[i] = unvisited
	}

	nextZone := 0
	for i := range buyers {
		if labels[i] != unvisited {
			continue
		}
		if len(neighbors[i]) < minSamples {
			labels[i] = Outlier
			continue
		}

		// Grow a new zone from this core point.
		zone := nextZone
		nextZone++
		labels[i] = zone

		queue := append([]int(nil), neighbors[i]...)
		for head := 0; head < len(queue); head++ {
			j := queue[head]
			if labels[j] == Outlier {
				// Border point previously marked as noise.
				labels[j] = zone
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = zone
			if len(neighbors[j]) >= minSamples {
				queue = append(queue, neighbors[j]...)
			}
		}
	}

	outliers := 0
	for _, l := range labels {
		if l == Outlier {
			outliers++
		}
	}
	log.Info().
		Int("zones", nextZone).
		Int("outliers", outliers).
		Int("buyers", len(buyers)).
		Msg("demand zones defined")

	return labels, nil
}

// neighborIndex returns, for each point, the indices within eps (angular
// radius) of it, including itself, in ascending index order.
func neighborIndex(buyers []domain.BuyerLocation, eps float64) [][]int {
	neighbors := make([][]int, len(buyers))
	for i := range buyers {
		for j := range buyers {
			if i == j {
				neighbors[i] = append(neighbors[i], j)
				continue
			}
			d := haversineAngle(buyers[i].Latitude, buyers[i].Longitude, buyers[j].Latitude, buyers[j].Longitude)
			if d <= eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
	}
	return neighbors
}
