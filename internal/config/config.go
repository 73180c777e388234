// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import "path/filepath"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir is the root directory for inputs and outputs.
	DataDir string `koanf:"data_dir"`

	// StageDir holds the scraped stage_N.json files. Defaults to
	// <data_dir>/stage_results when left empty.
	StageDir string `koanf:"stage_dir"`

	// SelectionsFile is the participant selections JSON. Defaults to
	// <data_dir>/participant_selections.json when left empty.
	SelectionsFile string `koanf:"selections_file"`

	// WebDataDir mirrors the export for the static site. Empty disables
	// the mirror.
	WebDataDir string `koanf:"web_data_dir"`

	// ArchivePath is the SQLite archive database. Empty disables archiving.
	ArchivePath string `koanf:"archive_path"`

	// MetricsAddr exposes Prometheus metrics during a run, e.g. ":9090".
	// Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// Year tags exports with the race edition.
	Year int `koanf:"year"`

	// DirectieTopN sets how many participant stage scores count toward a
	// directie's total each stage.
	DirectieTopN int `koanf:"directie_top_n"`

	// Anonymize replaces participant names with "deelnemer N" in all
	// outputs.
	Anonymize bool `koanf:"anonymize"`

	// ReformatRiderNames flips surname-first selections to
	// given-name-first to match the scraped results.
	ReformatRiderNames bool `koanf:"reformat_rider_names"`

	// WinnerPoints is the stage winner's finish points.
	WinnerPoints int `koanf:"winner_points"`

	// JerseyPoints maps jersey names (yellow, green, polka_dot, white,
	// combative) to their per-stage points.
	JerseyPoints map[string]int `koanf:"jersey_points"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		DataDir:      "data",
		Year:         2025,
		DirectieTopN: 5,
		WinnerPoints: 25,
		JerseyPoints: map[string]int{
			"yellow":    15,
			"green":     10,
			"polka_dot": 10,
			"white":     10,
			"combative": 5,
		},
	}
}

// ResolvedStageDir returns StageDir or its DataDir-relative default.
func (c *Config) ResolvedStageDir() string {
	if c.StageDir != "" {
		return c.StageDir
	}
	return filepath.Join(c.DataDir, "stage_results")
}

// ResolvedSelectionsFile returns SelectionsFile or its DataDir-relative
// default.
func (c *Config) ResolvedSelectionsFile() string {
	if c.SelectionsFile != "" {
		return c.SelectionsFile
	}
	return filepath.Join(c.DataDir, "participant_selections.json")
}
