// Package config loads service configuration from an optional YAML file and
// the environment. Environment variables win over the file; nested keys map
// to upper-case names with dots replaced by underscores (engine.report_currency
// -> ENGINE_REPORT_CURRENCY).
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"freightbench/internal/benchmark"
	"freightbench/internal/money"
	"freightbench/internal/refdata"
	"freightbench/internal/surcharge"
)

type Config struct {
	Port          string          `mapstructure:"port"`
	LogLevel      string          `mapstructure:"log_level"`
	DatabaseURL   string          `mapstructure:"database_url"`
	ReferenceSeed string          `mapstructure:"reference_seed"`
	Redis         RedisConfig     `mapstructure:"redis"`
	Engine        EngineConfig    `mapstructure:"engine"`
	Benchmark     BenchmarkConfig `mapstructure:"benchmark"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type EngineConfig struct {
	RoundingMode               string  `mapstructure:"rounding_mode"`
	DefaultZoneDomestic        int     `mapstructure:"default_zone_domestic"`
	DefaultZoneOther           int     `mapstructure:"default_zone_other"`
	DefaultDieselPct           float64 `mapstructure:"default_diesel_pct"`
	DefaultDieselBasis         string  `mapstructure:"default_diesel_basis"`
	TollWeightThresholdKg      float64 `mapstructure:"toll_weight_threshold_kg"`
	ClassificationThresholdPct float64 `mapstructure:"classification_threshold_pct"`
	ReportCurrency             string  `mapstructure:"report_currency"`
	// TollMatrix is country -> zone -> amount. Empty uses the built-in matrix.
	TollMatrix map[string]map[string]float64 `mapstructure:"toll_matrix"`
}

type BenchmarkConfig struct {
	Workers          int           `mapstructure:"workers"`
	ShipmentTimeout  time.Duration `mapstructure:"shipment_timeout"`
	UpsertByShipment bool          `mapstructure:"upsert_by_shipment"`
	MaxBatchSize     int           `mapstructure:"max_batch_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", "")
	v.SetDefault("reference_seed", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "benchmark_completed")
	v.SetDefault("engine.rounding_mode", "half_up")
	v.SetDefault("engine.default_zone_domestic", 1)
	v.SetDefault("engine.default_zone_other", 3)
	v.SetDefault("engine.default_diesel_pct", 18.5)
	v.SetDefault("engine.default_diesel_basis", "base")
	v.SetDefault("engine.toll_weight_threshold_kg", 3500)
	v.SetDefault("engine.classification_threshold_pct", 5)
	v.SetDefault("engine.report_currency", "")
	v.SetDefault("benchmark.workers", 4)
	v.SetDefault("benchmark.shipment_timeout", "10s")
	v.SetDefault("benchmark.upsert_by_shipment", false)
	v.SetDefault("benchmark.max_batch_size", 1000)
}

// Load reads configPath (if non-empty) and the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values Load cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("port: invalid value %q", c.Port))
	}
	if _, err := money.ParseMode(c.Engine.RoundingMode); err != nil {
		errs = append(errs, fmt.Errorf("engine.rounding_mode: %w", err))
	}
	if _, err := refdata.ParseDieselBasis(c.Engine.DefaultDieselBasis); err != nil {
		errs = append(errs, fmt.Errorf("engine.default_diesel_basis: %w", err))
	}
	if c.Engine.DefaultZoneDomestic <= 0 || c.Engine.DefaultZoneOther <= 0 {
		errs = append(errs, errors.New("engine.default_zone_domestic and engine.default_zone_other must be positive"))
	}
	if c.Engine.DefaultDieselPct < 0 {
		errs = append(errs, errors.New("engine.default_diesel_pct must not be negative"))
	}
	if c.Engine.TollWeightThresholdKg < 0 {
		errs = append(errs, errors.New("engine.toll_weight_threshold_kg must not be negative"))
	}
	if c.Engine.ClassificationThresholdPct < 0 {
		errs = append(errs, errors.New("engine.classification_threshold_pct must not be negative"))
	}
	if _, err := c.tollMatrix(); err != nil {
		errs = append(errs, err)
	}
	if c.Benchmark.Workers <= 0 {
		errs = append(errs, errors.New("benchmark.workers must be positive"))
	}
	if c.Benchmark.ShipmentTimeout < 0 {
		errs = append(errs, errors.New("benchmark.shipment_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) tollMatrix() (surcharge.TollMatrix, error) {
	if len(c.Engine.TollMatrix) == 0 {
		return surcharge.DefaultTollMatrix(), nil
	}
	m := make(surcharge.TollMatrix, len(c.Engine.TollMatrix))
	for country, zones := range c.Engine.TollMatrix {
		cc := strings.ToUpper(country)
		m[cc] = make(map[int]float64, len(zones))
		for z, amount := range zones {
			n, err := strconv.Atoi(z)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("engine.toll_matrix.%s: invalid zone %q", country, z)
			}
			m[cc][n] = amount
		}
	}
	return m, nil
}

// EngineDefaults returns the engine defaults. Call after Validate.
func (c *Config) EngineDefaults() benchmark.Defaults {
	mode, _ := money.ParseMode(c.Engine.RoundingMode)
	basis, _ := refdata.ParseDieselBasis(c.Engine.DefaultDieselBasis)
	matrix, _ := c.tollMatrix()
	return benchmark.Defaults{
		RoundingMode:               mode,
		DefaultZoneDomestic:        c.Engine.DefaultZoneDomestic,
		DefaultZoneOther:           c.Engine.DefaultZoneOther,
		DieselPct:                  c.Engine.DefaultDieselPct,
		DieselBasis:                basis,
		TollWeightThresholdKg:      c.Engine.TollWeightThresholdKg,
		TollMatrix:                 matrix,
		ClassificationThresholdPct: c.Engine.ClassificationThresholdPct,
		ReportCurrency:             strings.ToUpper(strings.TrimSpace(c.Engine.ReportCurrency)),
	}
}

func (c *Config) BatchOptions() benchmark.BatchOptions {
	return benchmark.BatchOptions{Workers: c.Benchmark.Workers, ShipmentTimeout: c.Benchmark.ShipmentTimeout}
}
