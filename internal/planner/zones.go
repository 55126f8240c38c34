package planner

import (
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

// MapZonesToWarehouses assigns each non-outlier zone to the warehouse nearest
// to the zone's centroid. Buyer coordinates are projected onto a planar metric
// CRS before computing centroids and distances. Ties go to the warehouse that
// appears first in the snapshot.
func MapZonesToWarehouses(buyers []domain.BuyerLocation, labels []int, warehouses []domain.WarehouseNode) map[int]int64 {
	type centroid struct {
		sumX, sumY float64
		n          int
	}
	centroids := make(map[int]*centroid)

	for i, buyer := range buyers {
		zone := labels[i]
		if zone == Outlier {
			continue
		}
		x, y := mercatorXY(buyer.Latitude, buyer.Longitude)
		c, ok := centroids[zone]
		if !ok {
			c = &centroid{}
			centroids[zone] = c
		}
		c.sumX += x
		c.sumY += y
		c.n++
	}

	type projected struct {
		id   int64
		x, y float64
	}
	nodes := make([]projected, len(warehouses))
	for i, w := range warehouses {
		x, y := mercatorXY(w.Latitude, w.Longitude)
		nodes[i] = projected{id: w.ID, x: x, y: y}
	}

	zoneWarehouse := make(map[int]int64, len(centroids))
	if len(nodes) == 0 {
		return zoneWarehouse
	}

	for zone, c := range centroids {
		cx := c.sumX / float64(c.n)
		cy := c.sumY / float64(c.n)

		best := nodes[0]
		bestDist := planarDistance(cx, cy, nodes[0].x, nodes[0].y)
		for _, node := range nodes[1:] {
			if d := planarDistance(cx, cy, node.x, node.y); d < bestDist {
				best = node
				bestDist = d
			}
		}
		zoneWarehouse[zone] = best.id
	}

	log.Info().Int("zones", len(zoneWarehouse)).Msg("zones mapped to warehouses")
	return zoneWarehouse
}
