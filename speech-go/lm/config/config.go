// Package config holds the settings of a compilation run.
package config

import (
	"runtime"

	"github.com/kiteco/speechlm/speech-go/lm/vocab"
	"github.com/kiteco/speechlm/speech-golib/envutil"
	"github.com/kiteco/speechlm/speech-golib/errors"
	"github.com/kiteco/speechlm/speech-golib/fileutil"
	yaml "gopkg.in/yaml.v2"
)

// WorkersEnv overrides the default number of smoothing workers.
const WorkersEnv = "SPEECHLM_WORKERS"

// Config describes how counts are compiled into a model.
type Config struct {
	MaxOrder int `yaml:"max_order"`
	// Discounts[k-1] is the discount for order k; 0 or a missing value means
	// estimate it from the counts.
	Discounts    []float64     `yaml:"discounts"`
	Symbols      vocab.Symbols `yaml:"symbols"`
	UniformFloor float64       `yaml:"uniform_floor"`
	Workers      int           `yaml:"workers"`
}

// Default returns a trigram configuration with estimated discounts.
func Default() Config {
	return Config{
		MaxOrder: 3,
		Symbols:  vocab.DefaultSymbols,
		Workers:  runtime.NumCPU(),
	}
}

// Load layers the environment and then the YAML file at path (local or s3)
// over the defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	workers, err := envutil.GetenvDefaultInt(WorkersEnv, cfg.Workers)
	if err != nil {
		return Config{}, err
	}
	cfg.Workers = workers

	if path != "" {
		buf, err := fileutil.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "error reading config %s", path)
		}
		if err := yaml.UnmarshalStrict(buf, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "error parsing config %s", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the compiler cannot run with.
func (c Config) Validate() error {
	if c.MaxOrder < 1 {
		return errors.Errorf("max_order must be at least 1, got %d", c.MaxOrder)
	}
	if len(c.Discounts) > c.MaxOrder {
		return errors.Errorf("%d discounts given for max_order %d", len(c.Discounts), c.MaxOrder)
	}
	for i, d := range c.Discounts {
		if d < 0 || d > 1 {
			return errors.Errorf("discount for order %d must be in [0, 1], got %v", i+1, d)
		}
	}
	if c.UniformFloor < 0 || c.UniformFloor >= 1 {
		return errors.Errorf("uniform_floor must be in [0, 1), got %v", c.UniformFloor)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return errors.WrapfOrNil(c.Symbols.Validate(), "invalid symbols")
}
