package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the supply chain database with network and inventory data",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory containing seed CSV files",
				Value:   "./data/seeds",
				EnvVars: []string{"SEED_DATA_DIR"},
			},
		},
		Action: runSeeder,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSeeder(c *cli.Context) error {
	db, err := sqlx.Open("postgres", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	dataDir := c.String("data-dir")
	steps := []struct {
		file string
		seed func(*sqlx.DB, [][]string) (int, error)
	}{
		{"warehouses.csv", seedWarehouses},
		{"buyers.csv", seedBuyers},
		{"products.csv", seedProducts},
		{"trucks.csv", seedTrucks},
		{"product_records.csv", seedProductRecords},
	}

	for _, step := range steps {
		path := filepath.Join(dataDir, step.file)
		rows, err := readCSV(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("file not found, skipping: %s", path)
				continue
			}
			return err
		}

		count, err := step.seed(db, rows)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", step.file, err)
		}
		log.Printf("seeded %d rows from %s", count, step.file)
	}

	return nil
}

// readCSV returns the data rows of a CSV file, header excluded.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if _, err := reader.Read(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// warehouses.csv: warehouseid,name,latitude,longitude,normalcapacitykg,refrigeratedcapacitykg
func seedWarehouses(db *sqlx.DB, rows [][]string) (int, error) {
	const query = `
		INSERT INTO "warehouse" ("warehouseid", "name", "location", "normalcapacitykg", "refrigeratedcapacitykg")
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326), $5, $6)
		ON CONFLICT ("warehouseid") DO UPDATE SET
			"name" = EXCLUDED."name",
			"location" = EXCLUDED."location",
			"normalcapacitykg" = EXCLUDED."normalcapacitykg",
			"refrigeratedcapacitykg" = EXCLUDED."refrigeratedcapacitykg"
	`
	count := 0
	for _, row := range rows {
		if len(row) < 6 {
			return count, fmt.Errorf("warehouse row needs 6 columns, got %d", len(row))
		}
		lat, lon, err := parseLatLon(row[2], row[3])
		if err != nil {
			return count, err
		}
		if _, err := db.Exec(query, row[0], row[1], lon, lat, row[4], row[5]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// buyers.csv: userid,latitude,longitude
func seedBuyers(db *sqlx.DB, rows [][]string) (int, error) {
	const query = `
		INSERT INTO "User" ("userid", "role", "location")
		VALUES ($1, 'Buyer', ST_SetSRID(ST_MakePoint($2, $3), 4326))
		ON CONFLICT ("userid") DO UPDATE SET "location" = EXCLUDED."location"
	`
	count := 0
	for _, row := range rows {
		if len(row) < 3 {
			return count, fmt.Errorf("buyer row needs 3 columns, got %d", len(row))
		}
		lat, lon, err := parseLatLon(row[1], row[2])
		if err != nil {
			return count, err
		}
		if _, err := db.Exec(query, row[0], lon, lat); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// products.csv: productid,name
func seedProducts(db *sqlx.DB, rows [][]string) (int, error) {
	const query = `
		INSERT INTO "product" ("productid", "name")
		VALUES ($1, $2)
		ON CONFLICT ("productid") DO UPDATE SET "name" = EXCLUDED."name"
	`
	count := 0
	for _, row := range rows {
		if len(row) < 2 {
			return count, fmt.Errorf("product row needs 2 columns, got %d", len(row))
		}
		if _, err := db.Exec(query, row[0], row[1]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// trucks.csv: truckid,loadcapacitykg,status
func seedTrucks(db *sqlx.DB, rows [][]string) (int, error) {
	const query = `
		INSERT INTO "truck" ("truckid", "loadcapacitykg", "status")
		VALUES ($1, $2, $3)
		ON CONFLICT ("truckid") DO UPDATE SET
			"loadcapacitykg" = EXCLUDED."loadcapacitykg",
			"status" = EXCLUDED."status"
	`
	count := 0
	for _, row := range rows {
		if len(row) < 3 {
			return count, fmt.Errorf("truck row needs 3 columns, got %d", len(row))
		}
		if _, err := db.Exec(query, row[0], row[1], row[2]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// product_records.csv: recordid,productid,warehouseid,quantitykg,supplierid,qualityclassification,registrationdate,status
func seedProductRecords(db *sqlx.DB, rows [][]string) (int, error) {
	const query = `
		INSERT INTO "productrecord"
			("recordid", "productid", "warehouseid", "quantitykg",
			 "supplierid", "qualityclassification", "registrationdate", "status")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ("recordid") DO UPDATE SET
			"warehouseid" = EXCLUDED."warehouseid",
			"quantitykg" = EXCLUDED."quantitykg",
			"qualityclassification" = EXCLUDED."qualityclassification",
			"status" = EXCLUDED."status"
	`
	count := 0
	for _, row := range rows {
		if len(row) < 8 {
			return count, fmt.Errorf("product record row needs 8 columns, got %d", len(row))
		}
		if _, err := db.Exec(query, row[0], row[1], row[2], row[3], row[4], row[5], row[6], row[7]); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func parseLatLon(latStr, lonStr string) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", latStr, err)
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", lonStr, err)
	}
	return lat, lon, nil
}
