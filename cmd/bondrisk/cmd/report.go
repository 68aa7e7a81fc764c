package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/portfolio"
	"github.com/meenmo/bondrisk/positions"
	"github.com/meenmo/bondrisk/store"
)

var (
	reportFormat string
	reportShifts []int
	reportSave   bool
	reportDB     string
	reportLabel  string
)

var reportCmd = &cobra.Command{
	Use:   "report <positions.json|positions.yaml>",
	Short: "Value a position file and print the risk report",
	Long: `Value every position in the file and print three tables: per-bond
analytics, maturity buckets, and PnL under parallel yield shifts.

Positions that cannot be valued are flagged in the report and left out of
the aggregates.

Examples:
  bondrisk report book.json
  bondrisk report book.yaml --format json --shifts -50,50
  bondrisk report book.json --save --db runs.db --label eod`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "output format (text or json)")
	reportCmd.Flags().IntSliceVar(&reportShifts, "shifts", nil, "yield shifts in bp (default from config)")
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "persist the report to the result store")
	reportCmd.Flags().StringVar(&reportDB, "db", "", "result store DSN (overrides config)")
	reportCmd.Flags().StringVar(&reportLabel, "label", "", "label stored with the run")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	records, err := positions.LoadFile(args[0])
	if err != nil {
		return err
	}
	book, err := positions.ToPositions(records)
	if err != nil {
		return err
	}

	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}
	opts, err := cfg.ValuationOptions()
	if err != nil {
		return err
	}
	bucketMethod, err := cfg.BucketMethod()
	if err != nil {
		return err
	}

	p := portfolio.New(book,
		portfolio.WithCalendar(cal, cfg.Convention()),
		portfolio.WithSettlementDays(cfg.Valuation.SettlementDays),
		portfolio.WithBucketMethod(bucketMethod),
		portfolio.WithValuationOptions(opts),
		portfolio.WithWorkers(cfg.Portfolio.Workers),
		portfolio.WithLogger(log),
	)
	if err := p.Enrich(cmd.Context()); err != nil {
		return err
	}

	shifts := reportShifts
	if len(shifts) == 0 {
		shifts = cfg.Portfolio.ShiftsBps
	}
	rep := p.Report(shifts)

	out := cmd.OutOrStdout()
	switch strings.ToLower(reportFormat) {
	case "json":
		err = rep.WriteJSON(out)
	case "text":
		err = rep.WriteText(out)
	default:
		return fmt.Errorf("unknown format %q (text or json)", reportFormat)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !reportSave {
		return nil
	}
	dsn := cfg.Store.DSN
	if reportDB != "" {
		dsn = reportDB
	}
	if dsn == "" {
		return fmt.Errorf("--save needs a store DSN (--db, store.dsn or BONDRISK_STORE_DSN)")
	}
	s, err := store.Open(cfg.Store.Driver, dsn)
	if err != nil {
		return err
	}
	defer s.Close()

	runID, err := s.SaveRun(cmd.Context(), reportLabel, rep)
	if err != nil {
		return err
	}
	log.Info().Str("run_id", runID).Int("bonds", len(rep.Bonds)).Msg("report saved")
	return nil
}
