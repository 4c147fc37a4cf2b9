// Package config loads startup parameters from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/talgya/mini-economy/internal/economy"
)

// Config holds every startup parameter of the simulation binary.
type Config struct {
	Population   int                 // Agents generated at startup
	Seed         int64               // Seeds population, facilities and productivity noise
	TickInterval time.Duration       // Wall-clock tick period
	DBPath       string              // SQLite path; empty disables persistence
	SaveEvery    uint64              // Ticks between snapshots
	Port         int                 // HTTP API port; 0 disables the API
	AdminKey     string              // Bearer token for POST endpoints
	PricePolicy  economy.PricePolicy // Demand aggregation price policy
	Facilities   int                 // Facilities per production kind
	Capacity     int64               // Mean facility output per tick
	Workers      int                 // Decision-pass goroutines; 0 = GOMAXPROCS
	LogLevel     slog.Level          // Handler level; per-tick reports log at Info
	Clearing     economy.ClearingConfig
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Population:   100000,
		Seed:         42,
		TickInterval: time.Second,
		DBPath:       "data/economy.db",
		SaveEvery:    60,
		Port:         8080,
		PricePolicy:  economy.PriceVolumeWeighted,
		Facilities:   1,
		Capacity:     50,
		LogLevel:     slog.LevelInfo,
		Clearing:     economy.DefaultClearingConfig(),
	}
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads configuration through lookup, which has the signature of
// os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	intVar := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	floatVar := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	intVar("ECONSIM_POPULATION", &cfg.Population)
	intVar("ECONSIM_PORT", &cfg.Port)
	intVar("ECONSIM_FACILITIES", &cfg.Facilities)
	intVar("ECONSIM_WORKERS", &cfg.Workers)
	floatVar("ECONSIM_PRICE_STEP", &cfg.Clearing.Step)
	floatVar("ECONSIM_MIN_PRICE", &cfg.Clearing.MinPrice)
	floatVar("ECONSIM_MAX_PRICE", &cfg.Clearing.MaxPrice)

	if v, ok := lookup("ECONSIM_SEED"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ECONSIM_SEED: %w", err))
		} else {
			cfg.Seed = n
		}
	}
	if v, ok := lookup("ECONSIM_CAPACITY"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ECONSIM_CAPACITY: %w", err))
		} else {
			cfg.Capacity = n
		}
	}
	if v, ok := lookup("ECONSIM_SAVE_EVERY"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("ECONSIM_SAVE_EVERY: %w", err))
		} else {
			cfg.SaveEvery = n
		}
	}
	if v, ok := lookup("ECONSIM_TICK"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ECONSIM_TICK: %w", err))
		} else {
			cfg.TickInterval = d
		}
	}
	if v, ok := lookup("ECONSIM_LOG_LEVEL"); ok && v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("ECONSIM_LOG_LEVEL: %w", err))
		} else {
			cfg.LogLevel = lvl
		}
	}
	if v, ok := lookup("ECONSIM_DB"); ok {
		cfg.DBPath = v
	}
	if v, ok := lookup("ECONSIM_ADMIN_KEY"); ok {
		cfg.AdminKey = v
	}
	if v, ok := lookup("ECONSIM_PRICE_POLICY"); ok {
		p, err := economy.ParsePricePolicy(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ECONSIM_PRICE_POLICY: %w", err))
		} else {
			cfg.PricePolicy = p
		}
	}

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Population < 0 {
		errs = append(errs, fmt.Errorf("population %d must be >= 0", c.Population))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval %s must be > 0", c.TickInterval))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Facilities < 0 {
		errs = append(errs, fmt.Errorf("facilities %d must be >= 0", c.Facilities))
	}
	if c.Capacity < 1 {
		errs = append(errs, fmt.Errorf("capacity %d must be >= 1", c.Capacity))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must be >= 0", c.Workers))
	}
	if err := c.Clearing.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
