package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/ridemap"
	"github.com/meikuraledutech/ridemap/memory"
	"github.com/meikuraledutech/ridemap/postgres"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	var store ridemap.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is not set, runs are kept in memory")
		store = memory.New()
	} else {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = postgres.New(pool)
	}

	app := newApp(store, cfg.Biomes, logger, ridemap.WithLogger(logger), ridemap.WithBiomes(cfg.Biomes))

	logger.Info("listening", "addr", cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
}
