package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if TOURPOULE_CONFIG is set
//  3. env (prefix TOURPOULE_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TOURPOULE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: TOURPOULE_DATA_DIR, TOURPOULE_YEAR, ...
	// Map env keys like TOURPOULE_STAGE_DIR -> stage_dir (flat keys).
	envProvider := env.Provider("TOURPOULE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "tourpoule_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.DirectieTopN <= 0 {
		return fmt.Errorf("%w: directie_top_n must be positive", ErrInvalidConfig)
	}
	if c.WinnerPoints <= 0 {
		return fmt.Errorf("%w: winner_points must be positive", ErrInvalidConfig)
	}
	for jersey, points := range c.JerseyPoints {
		if points < 0 {
			return fmt.Errorf("%w: jersey_points.%s must not be negative", ErrInvalidConfig, jersey)
		}
	}
	return nil
}
