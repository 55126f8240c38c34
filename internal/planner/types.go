package planner

import (
	"errors"
	"time"
)

// Outlier is the zone label for buyers not dense enough to form a zone.
// Outliers are excluded from demand aggregation and warehouse mapping.
const Outlier = -1

var (
	// ErrInsufficientClusteringData signals that no buyer locations were
	// available to form demand zones.
	ErrInsufficientClusteringData = errors.New("no buyer location data available for clustering")

	// ErrNoInventory signals that the network holds no in-stock inventory,
	// so no transfer can be generated at all.
	ErrNoInventory = errors.New("no in-stock inventory in any warehouse")
)

// ForecastRecord is the predicted horizon demand for one (product, zone) pair.
type ForecastRecord struct {
	ProductID  int64
	ZoneID     int
	DemandKg   float64
	Confidence float64
}

// TransferCandidate proposes moving one whole inventory record between two
// warehouses. QuantityKg always equals the underlying record's quantity.
type TransferCandidate struct {
	RecordID         int64
	ProductID        int64
	FromWarehouseID  int64
	ToWarehouseID    int64
	QuantityKg       float64
	SupplierID       int64
	Quality          string
	RegistrationDate time.Time
	Confidence       float64
}

// RouteAssignment binds a truck to a synthetic route with an estimated load.
type RouteAssignment struct {
	TruckID     int64
	CapacityKg  float64
	TotalLoadKg float64
}
