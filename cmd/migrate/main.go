package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/yuwankavi/Gas-Project/internal/adapters/postgres"
	"github.com/yuwankavi/Gas-Project/internal/pkg/config"
	"github.com/yuwankavi/Gas-Project/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("sellers-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}
	migrations, err := postgres.LoadMigrations(os.DirFS(dir), ".")
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		applied, err := db.MigrateUp(ctx, migrations)
		for _, v := range applied {
			slog.Info("migration applied", "version", v)
		}
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		slog.Info("all migrations applied", "count", len(applied))
	case "down":
		v, err := db.MigrateDown(ctx, migrations)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		if v == "" {
			slog.Info("nothing to revert")
			return
		}
		slog.Info("migration reverted", "version", v)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
