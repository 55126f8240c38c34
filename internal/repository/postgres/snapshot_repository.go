package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/rs/zerolog/log"
)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

// Fetch loads every table the planner reads in one pass. The queries mirror
// the operational schema: buyer locations come from the user table, sales
// history from completed orders joined back to their product records, and
// inventory is restricted to in-stock, non-bad records in FIFO order.
func (r *snapshotRepository) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	if err := r.db.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: acquire db slot: %w", err)
	}
	defer r.db.Release()

	snap := &domain.Snapshot{}

	const buyersQuery = `
		SELECT "userid", ST_Y("location"::geometry) AS latitude, ST_X("location"::geometry) AS longitude
		FROM "User"
		WHERE "role" = 'Buyer' AND "location" IS NOT NULL
	`
	if err := r.db.SelectContext(ctx, &snap.Buyers, buyersQuery); err != nil {
		return nil, fmt.Errorf("snapshot: fetch buyers: %w", err)
	}

	const warehousesQuery = `
		SELECT "warehouseid", "name",
		       ST_Y("location"::geometry) AS latitude, ST_X("location"::geometry) AS longitude,
		       "normalcapacitykg", "refrigeratedcapacitykg"
		FROM "warehouse"
		WHERE "location" IS NOT NULL
	`
	if err := r.db.SelectContext(ctx, &snap.Warehouses, warehousesQuery); err != nil {
		return nil, fmt.Errorf("snapshot: fetch warehouses: %w", err)
	}

	const productsQuery = `SELECT "productid", "name" FROM "product"`
	if err := r.db.SelectContext(ctx, &snap.Products, productsQuery); err != nil {
		return nil, fmt.Errorf("snapshot: fetch products: %w", err)
	}

	const salesQuery = `
		SELECT pr."productid", pr."quantitykg", o."orderdate", o."buyerid"
		FROM "orderitem" oi
		JOIN "Order" o ON oi."orderid" = o."orderid"
		JOIN "productrecord" pr ON oi."recordid" = pr."recordid"
		WHERE o."status" = 'Completed'
	`
	if err := r.db.SelectContext(ctx, &snap.Sales, salesQuery); err != nil {
		return nil, fmt.Errorf("snapshot: fetch sales: %w", err)
	}

	const inventoryQuery = `
		SELECT "recordid", "productid", "warehouseid", "quantitykg",
		       "supplierid", "qualityclassification", "registrationdate"
		FROM "productrecord"
		WHERE "status" = 'InStock' AND "qualityclassification" != 'Bad'
		ORDER BY "productid", "warehouseid", "registrationdate"
	`
	if err := r.db.SelectContext(ctx, &snap.Inventory, inventoryQuery); err != nil {
		return nil, fmt.Errorf("snapshot: fetch inventory: %w", err)
	}

	const trucksQuery = `
		SELECT "truckid", "loadcapacitykg"
		FROM "truck"
		WHERE "status" = 'Available'
	`
	if err := r.db.SelectContext(ctx, &snap.Trucks, trucksQuery); err != nil {
		return nil, fmt.Errorf("snapshot: fetch trucks: %w", err)
	}

	log.Debug().
		Int("buyers", len(snap.Buyers)).
		Int("warehouses", len(snap.Warehouses)).
		Int("products", len(snap.Products)).
		Int("sales", len(snap.Sales)).
		Int("inventory", len(snap.Inventory)).
		Int("trucks", len(snap.Trucks)).
		Msg("snapshot fetched")

	return snap, nil
}
