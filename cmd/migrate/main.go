package main

import (
	"context"
	"flag"

	"github.com/iliyamo/rateshop/internal/config"
	"github.com/iliyamo/rateshop/internal/database"
	"github.com/iliyamo/rateshop/internal/logger"
)

func main() {
	target := flag.Int64("target", 0, "schema version to migrate to; 0 means latest")
	flag.Parse()

	config.LoadDotenv()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName), log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	log.Info("running database migrations")
	if err := database.Migrate(ctx, db, *target, log); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.Info("migrations completed")
}
