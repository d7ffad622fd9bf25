package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/meikuraledutech/ridemap"
)

type config struct {
	DatabaseURL string
	ListenAddr  string
	Biomes      ridemap.BiomeTable
	LogLevel    slog.Level
}

// loadConfig reads the service configuration from the environment:
//
//	DATABASE_URL  postgres connection string; empty selects the in-memory store
//	LISTEN_ADDR   default ":3000"
//	BIOMES_FILE   optional YAML biome table
//	LOG_LEVEL     debug, info, warn or error
func loadConfig() (config, error) {
	cfg := config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		Biomes:      ridemap.DefaultBiomes(),
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":3000"
	}
	if path := os.Getenv("BIOMES_FILE"); path != "" {
		biomes, err := ridemap.LoadBiomes(path)
		if err != nil {
			return config{}, err
		}
		cfg.Biomes = biomes
	}
	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	return cfg, nil
}
