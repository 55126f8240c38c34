package postgres

import (
	"fmt"
	"sync"
	"time"

	"context"

	"github.com/andresuchdata/redistribution-planner/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/semaphore"
)

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

var (
	dbInstance *DB
	once       sync.Once
)

// NewDB creates a new database connection pool
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	var err error
	once.Do(func() {
		connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

		var db *sqlx.DB
		db, err = sqlx.Connect("postgres", connStr)
		if err != nil {
			return
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// The planner issues bursty multi-table reads; the semaphore keeps a
		// batch of concurrent runs from exhausting the pool.
		dbInstance = &DB{
			DB:  db,
			sem: semaphore.NewWeighted(10),
		}
	})

	return dbInstance, err
}

// Acquire reserves a slot for a multi-query read sequence.
func (db *DB) Acquire(ctx context.Context) error {
	return db.sem.Acquire(ctx, 1)
}

// Release returns the slot taken by Acquire.
func (db *DB) Release() {
	db.sem.Release(1)
}
