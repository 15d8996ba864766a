package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"github.com/yuwankavi/Gas-Project/internal/adapters/http"
	natsadapter "github.com/yuwankavi/Gas-Project/internal/adapters/nats"
	"github.com/yuwankavi/Gas-Project/internal/adapters/postgres"
	"github.com/yuwankavi/Gas-Project/internal/adapters/valkey"
	"github.com/yuwankavi/Gas-Project/internal/core/ports"
	"github.com/yuwankavi/Gas-Project/internal/core/spatial"
	"github.com/yuwankavi/Gas-Project/internal/core/usecases"
	"github.com/yuwankavi/Gas-Project/internal/pkg/config"
	"github.com/yuwankavi/Gas-Project/internal/pkg/logging"
	"github.com/yuwankavi/Gas-Project/internal/pkg/metrics"
	"github.com/yuwankavi/Gas-Project/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("sellers-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	origin := cfg.Server.InstanceID
	if origin == "" {
		origin = uuid.NewString()
	}

	deps := &http.Dependencies{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:      cfg.Server.RateLimit,
	}

	// Database
	var store ports.SellerStore
	if cfg.Storage.Driver == config.DriverPostgres {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		store = postgres.NewSellerStore(db)
		deps.DB = db

		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(db.Stat())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// NATS
	var publisher ports.EventPublisher
	var subscriber *natsadapter.Subscriber
	if cfg.NATS.URL != "" {
		nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName+"-"+origin)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			pub, err := natsadapter.NewPublisher(nc, cfg.NATS.Stream)
			if err != nil {
				slog.Warn("jetstream unavailable, events disabled", "error", err)
				nc.Close()
			} else {
				defer pub.Close()
				publisher = pub
				deps.NATS = nc

				subscriber, err = natsadapter.NewSubscriber(nc)
				if err != nil {
					slog.Warn("nats subscriber unavailable", "error", err)
				}
			}
		}
	}

	idx := spatial.New()
	sellers := usecases.NewSellerService(idx, store, cache, publisher, origin, cfg.Valkey.TTLSeconds)
	deps.Sellers = sellers

	var events ports.EventSubscriber
	if subscriber != nil {
		events = subscriber
	}
	// Index must be complete before serving queries.
	n, subscribed, err := bootstrapIndex(ctx, events, sellers)
	if err != nil {
		log.Fatalf("hydrate index: %v", err)
	}
	if subscribed {
		defer subscriber.Close()
	}
	if store != nil {
		slog.Info("index hydrated", "sellers", n)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "Nearby Sellers API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.TrimSpace(cfg.Server.CORSOrigins),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		ExposeHeaders:    "Location, ETag, Deprecation, Sunset, Link",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "origin", origin, "storage", cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
