package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/database"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	direction := flag.String("direction", "up", "up, down or version")
	dbURL := flag.String("db", "", "Database URL (defaults to DATABASE_URL)")
	steps := flag.Int("steps", 1, "Number of migrations to roll back (down only)")
	flag.Parse()

	if *dbURL == "" {
		*dbURL = os.Getenv("DATABASE_URL")
	}
	if *dbURL == "" {
		logger.Error("database URL is required: use -db flag or DATABASE_URL env var")
		os.Exit(2)
	}

	switch *direction {
	case "up":
		if err := database.Migrate(*dbURL); err != nil {
			logger.Error("migration up failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	case "down":
		if err := database.MigrateDown(*dbURL, *steps); err != nil {
			logger.Error("migration down failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations rolled back", "steps", *steps)
	case "version":
		version, dirty, err := database.Version(*dbURL)
		if err != nil {
			logger.Error("reading version failed", "error", err)
			os.Exit(1)
		}
		logger.Info("schema version", "version", version, "dirty", dirty)
	default:
		logger.Error("unknown direction, use up, down or version", "direction", *direction)
		os.Exit(2)
	}
}
