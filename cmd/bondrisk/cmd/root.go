package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/config"
	"github.com/meenmo/bondrisk/logger"
)

var (
	cfgFile  string
	logLevel string
	pretty   bool
)

var rootCmd = &cobra.Command{
	Use:   "bondrisk",
	Short: "Fixed-coupon bond portfolio analytics",
	Long: `Bondrisk values a book of fixed-coupon bonds and reports their risk.

It provides:
  - Yield to maturity, modified duration, DV01 and accrued interest per bond
  - Notional, DV01 and accrued interest by maturity bucket
  - Portfolio PnL under parallel yield shifts
  - Coupon schedule inspection
  - Result persistence to SQLite or PostgreSQL`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (.yaml, .toml or .json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable console logs")
}

// loadConfig reads .env, the config file if any, then environment and flag
// overrides.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if pretty {
		cfg.Log.Pretty = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	log := logger.New(cfg.Logger())
	logger.SetGlobalLogger(log)
	return log
}
