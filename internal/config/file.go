package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// RankingConfig holds the ranking tunables from the YAML config file.
type RankingConfig struct {
	MinEnrollment int `mapstructure:"min_enrollment" yaml:"min_enrollment"`
	RecencyYears  int `mapstructure:"default_recency_years" yaml:"default_recency_years"`
	DefaultTopN   int `mapstructure:"default_top_n" yaml:"default_top_n"`
	MaxTopN       int `mapstructure:"max_top_n" yaml:"max_top_n"`
}

// DefaultRankingConfig returns the values used when no file is present.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		MinEnrollment: DefaultMinEnrollment,
		RecencyYears:  DefaultRecencyYears,
		DefaultTopN:   DefaultTopN,
		MaxTopN:       MaxTopN,
	}
}

// LoadRankingFile reads ranking tunables from a YAML file. A missing file
// yields the defaults. Keys absent from the file keep their default values,
// and numeric strings such as "8" are accepted.
func LoadRankingFile(path string) (RankingConfig, error) {
	cfg := DefaultRankingConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := mapstructure.WeakDecode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranking tunables for sane ranges.
func (r RankingConfig) Validate() error {
	var errs []error
	if r.MinEnrollment < 0 {
		errs = append(errs, fmt.Errorf("min_enrollment cannot be negative, got %d", r.MinEnrollment))
	}
	if r.RecencyYears < 0 {
		errs = append(errs, fmt.Errorf("default_recency_years cannot be negative, got %d", r.RecencyYears))
	}
	if r.DefaultTopN <= 0 {
		errs = append(errs, fmt.Errorf("default_top_n must be positive, got %d", r.DefaultTopN))
	}
	if r.MaxTopN < r.DefaultTopN {
		errs = append(errs, fmt.Errorf("max_top_n (%d) must be >= default_top_n (%d)", r.MaxTopN, r.DefaultTopN))
	}
	return errors.Join(errs...)
}
