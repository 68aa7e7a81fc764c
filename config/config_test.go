package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "ACT/ACT", cfg.Valuation.DayCount)
	assert.Equal(t, []int{-25, -20, -15, -10, -5, 5, 10, 15, 20, 25}, cfg.Portfolio.ShiftsBps)

	opts, err := cfg.ValuationOptions()
	require.NoError(t, err)
	assert.Equal(t, utils.ActAct, opts.DayCount)
	assert.Equal(t, bond.QuoteClean, opts.Quote)
	assert.Equal(t, bond.DV01Central, opts.DV01Method)
	assert.Equal(t, bond.DefaultSolverConfig, opts.Solver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown day count", func(c *Config) { c.Valuation.DayCount = "BUS/252" }, "valuation.day_count"},
		{"unknown calendar", func(c *Config) { c.Valuation.Calendar = "MARS" }, "valuation.calendar"},
		{"bad holiday", func(c *Config) { c.Valuation.Holidays = []string{"07/04/2025"} }, "holiday"},
		{"bad convention", func(c *Config) { c.Valuation.BusinessDayConvention = "nearest" }, "business_day_convention"},
		{"bad quote", func(c *Config) { c.Valuation.Quote = "yield" }, "valuation.quote"},
		{"bad dv01 method", func(c *Config) { c.Valuation.DV01Method = "backward" }, "dv01_method"},
		{"bad bucket method", func(c *Config) { c.Valuation.BucketMethod = "ceil" }, "bucket_method"},
		{"negative settlement", func(c *Config) { c.Valuation.SettlementDays = -1 }, "settlement_days"},
		{"inverted bracket", func(c *Config) { c.Solver.LowerBound, c.Solver.UpperBound = 0.5, 0.1 }, "LowerBound"},
		{"negative workers", func(c *Config) { c.Portfolio.Workers = -2 }, "portfolio.workers"},
		{"bad store driver", func(c *Config) { c.Store.Driver, c.Store.DSN = "mysql", "x" }, "store.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_StoreDriverAliases(t *testing.T) {
	for _, driver := range []string{"", "sqlite", "sqlite3", "SQLite", "postgres", "postgresql"} {
		cfg := Default()
		cfg.Store.Driver, cfg.Store.DSN = driver, "runs.db"
		assert.NoError(t, cfg.Validate(), driver)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	content := `
valuation:
  day_count: 30/360
  calendar: USD
  holidays: ["2021-10-11"]
  settlement_days: 1
  bucket_method: round
portfolio:
  workers: 4
  shifts_bps: [-10, 10]
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "30/360", cfg.Valuation.DayCount)
	assert.Equal(t, 1, cfg.Valuation.SettlementDays)
	assert.Equal(t, 4, cfg.Portfolio.Workers)
	assert.Equal(t, []int{-10, 10}, cfg.Portfolio.ShiftsBps)
	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "clean", cfg.Valuation.Quote, "unset fields keep defaults")

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	assert.Equal(t, calendar.USD, cal.ID)
	assert.False(t, cal.IsBusinessDay(mustDate(t, "2021-10-11")))

	method, err := cfg.BucketMethod()
	require.NoError(t, err)
	assert.Equal(t, bond.BucketRoundedYears, method)
}

func TestLoadFromFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.toml")
	content := `
[valuation]
quote = "dirty"
dv01_method = "forward"
business_day_convention = "modified_following"

[solver]
max_iterations = 50

[store]
driver = "sqlite3"
dsn = "results.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, calendar.ModifiedFollowing, cfg.Convention())
	assert.Equal(t, "results.db", cfg.Store.DSN)

	opts, err := cfg.ValuationOptions()
	require.NoError(t, err)
	assert.Equal(t, bond.QuoteDirty, opts.Quote)
	assert.Equal(t, bond.DV01Forward, opts.DV01Method)
	assert.Equal(t, 50, opts.Solver.MaxIterations)
	assert.Equal(t, bond.DefaultSolverConfig.AbsTolerance, opts.Solver.AbsTolerance)
}

func TestLoadFromFile_JSONAndErrors(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "run.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"valuation":{"day_count":"ACT/365F"}}`), 0644))
	cfg, err := LoadFromFile(good)
	require.NoError(t, err)
	assert.Equal(t, "ACT/365F", cfg.Valuation.DayCount)

	invalid := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("valuation:\n  day_count: BUS/252\n"), 0644))
	_, err = LoadFromFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = LoadFromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BONDRISK_LOG_LEVEL", "warn")
	t.Setenv("BONDRISK_STORE_DSN", "postgres://risk@localhost/bonds")
	t.Setenv("BONDRISK_STORE_DRIVER", "postgres")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://risk@localhost/bonds", cfg.Store.DSN)
	assert.NoError(t, cfg.Validate())
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := utils.ParseDate(s)
	require.NoError(t, err)
	return d
}
