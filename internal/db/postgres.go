package db

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

var (
	newPool = pgxpool.New
	pingDB  = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres connects the package-level pool. Without a DATABASE_URL the
// pool stays nil and persistence is disabled; the pipeline still runs from
// memory.
func InitPostgres(ctx context.Context) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Println("DATABASE_URL not set, running without Postgres")
		return
	}

	pool, err := newPool(ctx, url)
	if err != nil {
		log.Printf("failed to create Postgres pool, running without persistence: %v", err)
		return
	}
	if err := pingDB(ctx, pool); err != nil {
		log.Printf("failed to connect to Postgres, running without persistence: %v", err)
		pool.Close()
		return
	}

	Pool = pool
	log.Println("Connected to Postgres")
}
