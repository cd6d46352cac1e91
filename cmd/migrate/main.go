package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"snapvault/config"
)

const _migrationsDir = "migrations"

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Migrate - godotenv.Load: %s", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Migrate - config.New: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PG.URL)
	if err != nil {
		log.Fatalf("Migrate - pgxpool.New: %s", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Migrate - pool.Ping: %s", err)
	}

	if err := run(ctx, pool); err != nil {
		log.Fatalf("Migrate - run: %s", err)
	}

	log.Println("Migrate - done")
}

// run applies every migrations/*.sql file in lexical order. Statements are
// written to be re-runnable, so there is no version bookkeeping table.
func run(ctx context.Context, pool *pgxpool.Pool) error {
	files, err := filepath.Glob(filepath.Join(_migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("filepath.Glob: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migration files found in %s", _migrationsDir)
	}

	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("os.ReadFile %s: %w", file, err)
		}

		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("pool.Exec %s: %w", file, err)
		}

		log.Printf("Migrate - applied %s", file)
	}

	return nil
}
