package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr          string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath            string     `env:"DB_PATH" envDefault:"data/geoquest.db"`
	LogLevel          slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	CompletionRadiusM float64    `env:"COMPLETION_RADIUS_M" envDefault:"15"`
	SeedDemo          bool       `env:"SEED_DEMO" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
