// Command migrate applies the SQL schema in migrations/ to DATABASE_URL.
package main

import (
	"context"
	"time"

	"github.com/joy095/travel/config"
	"github.com/joy095/travel/config/db"
	"github.com/joy095/travel/logger"
	"github.com/joy095/travel/migrations"
)

func main() {
	logger.InitLoggers()

	cfg, err := config.New()
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		logger.ErrorLogger.Fatalf("Migration failed after %d files: %v", applied, err)
	}
	logger.InfoLogger.Infof("Migrations complete, %d applied", applied)
}
