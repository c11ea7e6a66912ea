package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one transform to inspect. Only dims is required; axes
// default to the last two.
type Config struct {
	Dims          []int `yaml:"dims"`
	Axes          []int `yaml:"axes"`
	Scales        int   `yaml:"scales"`
	Angles        int   `yaml:"angles"`
	WaveletFinest bool  `yaml:"wavelet_finest"`
	Workers       int   `yaml:"workers"`

	// Optional input: raw little-endian complex128 samples, row-major.
	Data string `yaml:"data"`

	// Optional outputs, rendered from the first batch slice of Data.
	Chart        string `yaml:"chart"`   // HTML energy chart
	Montage      string `yaml:"montage"` // PNG wedge montage, 2D only
	MontageScale int    `yaml:"montage_scale"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Dims) == 0 {
		return cfg, fmt.Errorf("%s: dims is required", path)
	}
	if len(cfg.Axes) == 0 {
		cfg.Axes = []int{-2, -1}
	}
	return cfg, nil
}
