package planner

import (
	"errors"
	"testing"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
)

func TestClusterBuyersDenseAndNoise(t *testing.T) {
	// Three buyers within ~1.5km of each other plus one ~1500km away.
	buyers := []domain.BuyerLocation{
		{ID: 1, Latitude: 0.00, Longitude: 0.00},
		{ID: 2, Latitude: 0.01, Longitude: 0.00},
		{ID: 3, Latitude: 0.00, Longitude: 0.01},
		{ID: 4, Latitude: 10.0, Longitude: 10.0},
	}

	labels, err := ClusterBuyers(buyers, 50000, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 4 {
		t.Fatalf("expected 4 labels, got %d", len(labels))
	}
	for i := 0; i < 3; i++ {
		if labels[i] != 0 {
			t.Fatalf("buyer %d: label = %d, want zone 0", i, labels[i])
		}
	}
	if labels[3] != Outlier {
		t.Fatalf("distant buyer: label = %d, want outlier", labels[3])
	}
}

func TestClusterBuyersTwoZones(t *testing.T) {
	buyers := []domain.BuyerLocation{
		{ID: 1, Latitude: 0.00, Longitude: 0.00},
		{ID: 2, Latitude: 0.01, Longitude: 0.00},
		{ID: 3, Latitude: 0.00, Longitude: 0.01},
		{ID: 4, Latitude: 5.00, Longitude: 5.00},
		{ID: 5, Latitude: 5.01, Longitude: 5.00},
		{ID: 6, Latitude: 5.00, Longitude: 5.01},
	}

	labels, err := ClusterBuyers(buyers, 50000, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels[0] != 0 || labels[1] != 0 || labels[2] != 0 {
		t.Fatalf("first group labels = %v, want zone 0", labels[:3])
	}
	if labels[3] != 1 || labels[4] != 1 || labels[5] != 1 {
		t.Fatalf("second group labels = %v, want zone 1", labels[3:])
	}
}

func TestClusterBuyersAllSparse(t *testing.T) {
	// Each buyer hundreds of kilometers from the next: nobody reaches
	// min_samples, everything is noise.
	buyers := []domain.BuyerLocation{
		{ID: 1, Latitude: 0, Longitude: 0},
		{ID: 2, Latitude: 10, Longitude: 0},
		{ID: 3, Latitude: 20, Longitude: 0},
	}

	labels, err := ClusterBuyers(buyers, 50000, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, l := range labels {
		if l != Outlier {
			t.Fatalf("buyer %d: label = %d, want outlier", i, l)
		}
	}
}

func TestClusterBuyersDeterministic(t *testing.T) {
	buyers := []domain.BuyerLocation{
		{ID: 1, Latitude: 0.00, Longitude: 0.00},
		{ID: 2, Latitude: 0.01, Longitude: 0.00},
		{ID: 3, Latitude: 0.00, Longitude: 0.01},
		{ID: 4, Latitude: 0.02, Longitude: 0.02},
	}

	first, err := ClusterBuyers(buyers, 50000, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for run := 0; run < 10; run++ {
		labels, err := ClusterBuyers(buyers, 50000, 3)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		for i := range labels {
			if labels[i] != first[i] {
				t.Fatalf("run %d: labels differ at %d: %d vs %d", run, i, labels[i], first[i])
			}
		}
	}
}

func TestClusterBuyersEmpty(t *testing.T) {
	_, err := ClusterBuyers(nil, 50000, 3)
	if !errors.Is(err, ErrInsufficientClusteringData) {
		t.Fatalf("error = %v, want ErrInsufficientClusteringData", err)
	}
}

func TestMapZonesToWarehouses(t *testing.T) {
	buyers := []domain.BuyerLocation{
		{ID: 1, Latitude: 0.00, Longitude: 0.00},
		{ID: 2, Latitude: 0.01, Longitude: 0.00},
		{ID: 3, Latitude: 0.00, Longitude: 0.01},
		{ID: 4, Latitude: 10.0, Longitude: 10.0},
	}
	labels := []int{0, 0, 0, Outlier}
	warehouses := []domain.WarehouseNode{
		{ID: 7, Name: "Far", Latitude: 8.0, Longitude: 8.0},
		{ID: 9, Name: "Near", Latitude: 0.05, Longitude: 0.05},
	}

	zoneWarehouse := MapZonesToWarehouses(buyers, labels, warehouses)
	if len(zoneWarehouse) != 1 {
		t.Fatalf("expected 1 mapped zone, got %d", len(zoneWarehouse))
	}
	if zoneWarehouse[0] != 9 {
		t.Fatalf("zone 0 mapped to warehouse %d, want 9", zoneWarehouse[0])
	}
}
