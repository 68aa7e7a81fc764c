package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/logger"
	"github.com/meenmo/bondrisk/store"
	"github.com/meenmo/bondrisk/utils"
)

// Config represents a complete portfolio run configuration
type Config struct {
	Valuation ValuationConfig `json:"valuation" yaml:"valuation" toml:"valuation"`
	Solver    SolverConfig    `json:"solver" yaml:"solver" toml:"solver"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio" toml:"portfolio"`
	Log       LogConfig       `json:"log" yaml:"log" toml:"log"`
	Store     StoreConfig     `json:"store" yaml:"store" toml:"store"`
}

// ValuationConfig selects market conventions
type ValuationConfig struct {
	DayCount              string   `json:"day_count" yaml:"day_count" toml:"day_count"`
	Calendar              string   `json:"calendar" yaml:"calendar" toml:"calendar"`
	Holidays              []string `json:"holidays,omitempty" yaml:"holidays,omitempty" toml:"holidays"`
	BusinessDayConvention string   `json:"business_day_convention" yaml:"business_day_convention" toml:"business_day_convention"`
	Quote                 string   `json:"quote" yaml:"quote" toml:"quote"` // "clean" or "dirty"
	DV01Method            string   `json:"dv01_method" yaml:"dv01_method" toml:"dv01_method"`
	BucketMethod          string   `json:"bucket_method" yaml:"bucket_method" toml:"bucket_method"`
	SettlementDays        int      `json:"settlement_days" yaml:"settlement_days" toml:"settlement_days"`
}

// SolverConfig overrides the yield solver defaults
type SolverConfig struct {
	AbsTolerance  float64 `json:"abs_tolerance" yaml:"abs_tolerance" toml:"abs_tolerance"`
	RelTolerance  float64 `json:"rel_tolerance" yaml:"rel_tolerance" toml:"rel_tolerance"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations" toml:"max_iterations"`
	LowerBound    float64 `json:"lower_bound" yaml:"lower_bound" toml:"lower_bound"`
	UpperBound    float64 `json:"upper_bound" yaml:"upper_bound" toml:"upper_bound"`
}

// PortfolioConfig contains aggregation parameters
type PortfolioConfig struct {
	Workers   int   `json:"workers" yaml:"workers" toml:"workers"` // 0 = GOMAXPROCS
	ShiftsBps []int `json:"shifts_bps" yaml:"shifts_bps" toml:"shifts_bps"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty" toml:"pretty"`
}

// StoreConfig selects where run results are persisted. An empty DSN disables it.
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver" toml:"driver"` // "sqlite3" or "postgres"
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty" toml:"dsn"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	s := bond.DefaultSolverConfig
	return &Config{
		Valuation: ValuationConfig{
			DayCount:              string(utils.ActAct),
			Calendar:              string(calendar.WEEKENDS),
			BusinessDayConvention: string(calendar.Unadjusted),
			Quote:                 "clean",
			DV01Method:            "central",
			BucketMethod:          "calendar",
		},
		Solver: SolverConfig{
			AbsTolerance:  s.AbsTolerance,
			RelTolerance:  s.RelTolerance,
			MaxIterations: s.MaxIterations,
			LowerBound:    s.LowerBound,
			UpperBound:    s.UpperBound,
		},
		Portfolio: PortfolioConfig{
			ShiftsBps: []int{-25, -20, -15, -10, -5, 5, 10, 15, 20, 25},
		},
		Log: LogConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Driver: "sqlite3",
		},
	}
}

// LoadFromFile loads configuration from a YAML, TOML or JSON file, chosen by
// extension. Fields absent from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse TOML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse YAML config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides file settings from BONDRISK_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("BONDRISK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BONDRISK_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("BONDRISK_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := utils.ParseDayCount(c.Valuation.DayCount); err != nil {
		return fmt.Errorf("valuation.day_count: %w", err)
	}
	if _, err := c.Calendar(); err != nil {
		return fmt.Errorf("valuation.calendar: %w", err)
	}
	if _, err := calendar.ParseConvention(c.Valuation.BusinessDayConvention); err != nil {
		return fmt.Errorf("valuation.business_day_convention: %w", err)
	}
	if _, err := c.ValuationOptions(); err != nil {
		return err
	}
	if _, err := c.BucketMethod(); err != nil {
		return err
	}
	if c.Valuation.SettlementDays < 0 {
		return fmt.Errorf("valuation.settlement_days must be non-negative")
	}
	if c.Portfolio.Workers < 0 {
		return fmt.Errorf("portfolio.workers must be non-negative")
	}
	if _, err := store.NormalizeDriver(c.Store.Driver); err != nil {
		return fmt.Errorf("store.driver: %w", err)
	}
	return nil
}

// Calendar builds the configured business-day calendar.
func (c *Config) Calendar() (*calendar.HolidayCalendar, error) {
	holidays := make([]time.Time, 0, len(c.Valuation.Holidays))
	for _, h := range c.Valuation.Holidays {
		d, err := utils.ParseDate(h)
		if err != nil {
			return nil, fmt.Errorf("holiday: %w", err)
		}
		holidays = append(holidays, d)
	}
	return calendar.Lookup(c.Valuation.Calendar, holidays)
}

// Convention returns the payment-date business day convention.
func (c *Config) Convention() calendar.BusinessDayConvention {
	conv, err := calendar.ParseConvention(c.Valuation.BusinessDayConvention)
	if err != nil {
		return calendar.Unadjusted
	}
	return conv
}

// ValuationOptions converts the valuation and solver sections to bond.Options.
func (c *Config) ValuationOptions() (bond.Options, error) {
	dc, err := utils.ParseDayCount(c.Valuation.DayCount)
	if err != nil {
		return bond.Options{}, fmt.Errorf("valuation.day_count: %w", err)
	}

	opts := bond.Options{DayCount: dc, Solver: bond.DefaultSolverConfig}
	switch strings.ToLower(c.Valuation.Quote) {
	case "", "clean":
		opts.Quote = bond.QuoteClean
	case "dirty":
		opts.Quote = bond.QuoteDirty
	default:
		return bond.Options{}, fmt.Errorf("valuation.quote must be 'clean' or 'dirty'")
	}
	switch strings.ToLower(c.Valuation.DV01Method) {
	case "", "central":
		opts.DV01Method = bond.DV01Central
	case "forward":
		opts.DV01Method = bond.DV01Forward
	default:
		return bond.Options{}, fmt.Errorf("valuation.dv01_method must be 'central' or 'forward'")
	}

	if c.Solver.AbsTolerance != 0 {
		opts.Solver.AbsTolerance = c.Solver.AbsTolerance
	}
	if c.Solver.RelTolerance != 0 {
		opts.Solver.RelTolerance = c.Solver.RelTolerance
	}
	if c.Solver.MaxIterations != 0 {
		opts.Solver.MaxIterations = c.Solver.MaxIterations
	}
	if c.Solver.LowerBound != 0 || c.Solver.UpperBound != 0 {
		opts.Solver.LowerBound = c.Solver.LowerBound
		opts.Solver.UpperBound = c.Solver.UpperBound
	}
	if err := opts.Solver.Validate(1); err != nil {
		return bond.Options{}, err
	}
	return opts, nil
}

// BucketMethod returns the maturity bucketing rule.
func (c *Config) BucketMethod() (bond.BucketMethod, error) {
	switch strings.ToLower(c.Valuation.BucketMethod) {
	case "", "calendar":
		return bond.BucketCalendarYears, nil
	case "round":
		return bond.BucketRoundedYears, nil
	default:
		return "", fmt.Errorf("valuation.bucket_method must be 'calendar' or 'round'")
	}
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Pretty: c.Log.Pretty}
}
