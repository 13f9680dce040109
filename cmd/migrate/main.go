package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/adsops/adsops/infrastructure/adapter/postgres"
	"github.com/adsops/adsops/migrations"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up or down")
	steps := flag.Int("steps", 1, "number of migrations to revert in down mode (0 = all)")
	flag.Parse()

	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}

	files, err := postgres.LoadMigrations(migrations.FS, ".")
	if err != nil {
		log.WithError(err).Fatal("failed to load migrations")
	}

	migrator := postgres.NewMigrator(db, log)
	switch strings.ToLower(*mode) {
	case "up":
		n, err := migrator.Up(ctx, files)
		if err != nil {
			log.WithError(err).Fatal("migration up failed")
		}
		log.WithField("applied", n).Info("Migration up completed successfully")
	case "down":
		n, err := migrator.Down(ctx, files, *steps)
		if err != nil {
			log.WithError(err).Fatal("migration down failed")
		}
		log.WithField("reverted", n).Info("Migration down completed successfully")
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}
