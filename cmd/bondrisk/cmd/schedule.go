package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/utils"
)

var (
	schedAccrual   string
	schedMaturity  string
	schedFrequency int
	schedCoupon    float64
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print a bond's coupon schedule",
	Long: `Generate the coupon schedule backward from maturity and print accrual
and payment dates. Payment dates follow the configured calendar and
business day convention.

Example:
  bondrisk schedule --accrual 2020-01-15 --maturity 2030-01-15 --frequency 2 --coupon 4`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&schedAccrual, "accrual", "", "accrual start date (YYYY-MM-DD)")
	scheduleCmd.Flags().StringVar(&schedMaturity, "maturity", "", "maturity date (YYYY-MM-DD)")
	scheduleCmd.Flags().IntVar(&schedFrequency, "frequency", 2, "coupons per year (1, 2, 4 or 12)")
	scheduleCmd.Flags().Float64Var(&schedCoupon, "coupon", 0, "annual coupon in percent")
	_ = scheduleCmd.MarkFlagRequired("accrual")
	_ = scheduleCmd.MarkFlagRequired("maturity")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	accrual, err := utils.ParseDate(schedAccrual)
	if err != nil {
		return fmt.Errorf("--accrual: %w", err)
	}
	maturity, err := utils.ParseDate(schedMaturity)
	if err != nil {
		return fmt.Errorf("--maturity: %w", err)
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}

	b, err := bond.New(bond.Terms{
		IssueDate:    accrual,
		MaturityDate: maturity,
		CouponRate:   schedCoupon / 100.0,
		Frequency:    schedFrequency,
	}, cal, cfg.Convention())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tACCRUAL END\tPAYMENT\tCOUPON\tPRINCIPAL")
	last := len(b.Schedule.Dates) - 1
	for i, d := range b.Schedule.Dates {
		coupon, principal := b.CouponAmount(), 0.0
		if d.Equal(b.Schedule.AccrualStart) {
			coupon = 0
		}
		if i == last {
			principal = b.FaceValue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.6f\t%.2f\n", i+1,
			d.Format(utils.DateLayout), b.Schedule.PaymentDates[i].Format(utils.DateLayout), coupon, principal)
	}
	return tw.Flush()
}
