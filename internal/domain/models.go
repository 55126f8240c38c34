package domain

import "time"

// BuyerLocation is a buyer with a known position, as read from the snapshot.
type BuyerLocation struct {
	ID        int64   `json:"id" db:"userid"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// WarehouseNode is a warehouse with its position and storage capacities.
type WarehouseNode struct {
	ID                     int64   `json:"id" db:"warehouseid"`
	Name                   string  `json:"name" db:"name"`
	Latitude               float64 `json:"latitude" db:"latitude"`
	Longitude              float64 `json:"longitude" db:"longitude"`
	NormalCapacityKg       float64 `json:"normal_capacity_kg" db:"normalcapacitykg"`
	RefrigeratedCapacityKg float64 `json:"refrigerated_capacity_kg" db:"refrigeratedcapacitykg"`
}

// Product is a product catalog entry.
type Product struct {
	ID   int64  `json:"id" db:"productid"`
	Name string `json:"name" db:"name"`
}

// SaleRecord is one completed sale line used as forecasting history.
type SaleRecord struct {
	ProductID  int64     `json:"product_id" db:"productid"`
	QuantityKg float64   `json:"quantity_kg" db:"quantitykg"`
	OrderDate  time.Time `json:"order_date" db:"orderdate"`
	BuyerID    int64     `json:"buyer_id" db:"buyerid"`
}

// InventoryRecord is an in-stock, non-bad product record. Records are moved
// whole or not at all; the planner never mutates them.
type InventoryRecord struct {
	RecordID         int64     `json:"record_id" db:"recordid"`
	ProductID        int64     `json:"product_id" db:"productid"`
	WarehouseID      int64     `json:"warehouse_id" db:"warehouseid"`
	QuantityKg       float64   `json:"quantity_kg" db:"quantitykg"`
	SupplierID       int64     `json:"supplier_id" db:"supplierid"`
	Quality          string    `json:"quality" db:"qualityclassification"`
	RegistrationDate time.Time `json:"registration_date" db:"registrationdate"`
}

// Truck is an available truck with its load capacity.
type Truck struct {
	ID         int64   `json:"id" db:"truckid"`
	CapacityKg float64 `json:"capacity_kg" db:"loadcapacitykg"`
}

// Snapshot is the read-only view of the network a planning run operates on.
// It is fetched once per run and discarded with the run's output.
type Snapshot struct {
	Buyers     []BuyerLocation
	Warehouses []WarehouseNode
	Products   []Product
	Sales      []SaleRecord
	Inventory  []InventoryRecord
	Trucks     []Truck
}
