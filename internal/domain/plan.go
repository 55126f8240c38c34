package domain

import "time"

// PlanRequest carries the caller-tunable parameters of a planning run.
type PlanRequest struct {
	MaxTrucksToUse      int     `json:"max_trucks_to_use"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

// TransferRecord is one suggested whole-record move, with full traceability
// back to the snapshot and the truck route it was matched to.
type TransferRecord struct {
	TransferID               string    `json:"transfer_id"`
	ProductID                int64     `json:"product_id"`
	ProductName              string    `json:"product_name"`
	ProductRecordID          int64     `json:"product_record_id"`
	OriginWarehouseID        int64     `json:"origin_warehouse_id"`
	OriginWarehouseName      string    `json:"origin_warehouse_name"`
	DestinationWarehouseID   int64     `json:"destination_warehouse_id"`
	DestinationWarehouseName string    `json:"destination_warehouse_name"`
	QuantityKg               float64   `json:"quantity_kg"`
	SupplierID               int64     `json:"supplier_id"`
	QualityClassification    string    `json:"quality_classification"`
	RegistrationDate         time.Time `json:"registration_date"`
	ConfidenceScore          float64   `json:"confidence_score"`
	AssignedTruckID          *int64    `json:"assigned_truck_id"`
	TruckCapacityKg          *float64  `json:"truck_capacity_kg"`
	RouteTotalLoadKg         *float64  `json:"route_total_load_kg"`
	GeneratedTimestamp       time.Time `json:"generated_timestamp"`
	Status                   string    `json:"status"`
}

// ProductSummary aggregates the suggested transfers of one product.
type ProductSummary struct {
	ProductID         int64   `json:"product_id"`
	TotalQuantityKg   float64 `json:"total_quantity_kg"`
	NumberOfTransfers int     `json:"number_of_transfers"`
	TrucksRequired    int     `json:"trucks_required"`
}

// RouteSummary aggregates transfers sharing an origin, destination and truck.
type RouteSummary struct {
	OriginWarehouseID      int64   `json:"origin_warehouse_id"`
	DestinationWarehouseID int64   `json:"destination_warehouse_id"`
	AssignedTruckID        *int64  `json:"assigned_truck_id"`
	RouteTotalKg           float64 `json:"route_total_kg"`
	NumberOfRecords        int     `json:"number_of_records"`
	NumberOfProducts       int     `json:"number_of_products"`
}

// PlanParameters echoes the parameters a run actually used.
type PlanParameters struct {
	MaxTrucksToUse      int     `json:"max_trucks_to_use"`
	ForecastDays        int     `json:"forecast_days"`
	ClusterRadiusMeters float64 `json:"cluster_radius_meters"`
	ClusterMinSamples   int     `json:"cluster_min_samples"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
}

// PlanStats summarizes a run's output volume.
type PlanStats struct {
	TotalProducts  int            `json:"total_products"`
	TotalTransfers int            `json:"total_transfers"`
	TotalVolume    float64        `json:"total_volume"`
	ParametersUsed PlanParameters `json:"parameters_used"`
}

// PlanResult is the full output of one planning run. Failed runs carry
// Success=false with a message and error string instead of surfacing a panic
// or a raw error to the transport layer.
type PlanResult struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	RunID           string           `json:"run_id,omitempty"`
	TransferRecords []TransferRecord `json:"transfer_records"`
	ProductSummary  []ProductSummary `json:"product_summary"`
	RouteSummary    []RouteSummary   `json:"route_summary"`
	Results         *PlanStats       `json:"results,omitempty"`
	Error           string           `json:"error,omitempty"`
}
