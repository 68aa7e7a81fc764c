package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/store"
)

var (
	runsDB     string
	runsLimit  int
	runsFormat string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query stored report runs",
	Long: `List and reload reports saved with "bondrisk report --save".

Examples:
  bondrisk runs list --db runs.db
  bondrisk runs show <run-id> --db runs.db`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored report",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "result store DSN (overrides config)")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum runs to list")
	runsShowCmd.Flags().StringVarP(&runsFormat, "format", "f", "text", "output format (text or json)")
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dsn := cfg.Store.DSN
	if runsDB != "" {
		dsn = runsDB
	}
	if dsn == "" {
		return nil, fmt.Errorf("no store DSN (--db, store.dsn or BONDRISK_STORE_DSN)")
	}
	return store.Open(cfg.Store.Driver, dsn)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tLABEL\tBONDS\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Label, r.Bonds, r.Failed)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rep, err := s.LoadRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if runsFormat == "json" {
		return rep.WriteJSON(cmd.OutOrStdout())
	}
	return rep.WriteText(cmd.OutOrStdout())
}
