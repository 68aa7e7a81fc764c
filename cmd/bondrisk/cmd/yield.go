package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/calendar"
	"github.com/meenmo/bondrisk/utils"
)

type yieldInput struct {
	TaskID         string  `json:"task_id,omitempty"`
	IssueDate      string  `json:"issue_date"`
	AccrualDate    string  `json:"accrual_date,omitempty"`
	MaturityDate   string  `json:"maturity_date"`
	Coupon         float64 `json:"coupon"` // percent
	Frequency      int     `json:"frequency,omitempty"`
	Face           float64 `json:"face,omitempty"`
	Price          float64 `json:"price"`
	SettlementDate string  `json:"settlement_date"`
	DayCount       string  `json:"day_count,omitempty"`
	Quote          string  `json:"quote,omitempty"`
}

type yieldOutput struct {
	TaskID           string  `json:"task_id,omitempty"`
	SettlementDate   string  `json:"settlement_date,omitempty"`
	Price            float64 `json:"price,omitempty"`
	Yield            float64 `json:"ytm"`
	Iterations       int     `json:"iterations"`
	ModifiedDuration float64 `json:"duration"`
	DV01             float64 `json:"dv01"`
	AccruedInterest  float64 `json:"accrued_interest"`
	ErrorKind        string  `json:"error_kind,omitempty"`
	Error            string  `json:"error,omitempty"`
}

var errYieldFailures = errors.New("one or more yields failed")

var yieldInputPath string

var yieldCmd = &cobra.Command{
	Use:   "yield",
	Short: "Solve yield, duration and DV01 for JSON bond quotes",
	Long: `Read one JSON object or an array of objects and write the same shape
back with ytm, duration, dv01 and accrued_interest. Failed items carry an
error and the command exits non-zero.

Example:
  echo '{"issue_date":"2020-01-15","maturity_date":"2030-01-15","coupon":4,
         "price":95,"settlement_date":"2021-01-15"}' | bondrisk yield`,
	Args: cobra.NoArgs,
	RunE: runYield,
}

func init() {
	rootCmd.AddCommand(yieldCmd)
	yieldCmd.Flags().StringVarP(&yieldInputPath, "input", "i", "", "JSON input path (reads stdin if omitted)")
}

func runYield(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}
	base, err := cfg.ValuationOptions()
	if err != nil {
		return err
	}

	raw, err := readInput(cmd.InOrStdin(), strings.TrimSpace(yieldInputPath))
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	inputs, isArray, err := parseYieldInputs(raw)
	if err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	hadError := false
	outputs := make([]yieldOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := processYield(in, cal, cfg.Convention(), base)
		if err != nil {
			hadError = true
			outputs = append(outputs, yieldOutput{TaskID: in.TaskID, ErrorKind: bond.ErrorKind(err), Error: err.Error()})
			continue
		}
		outputs = append(outputs, *out)
	}

	var b []byte
	if isArray {
		b, _ = json.Marshal(outputs)
	} else {
		b, _ = json.Marshal(outputs[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	if hadError {
		return errYieldFailures
	}
	return nil
}

func processYield(in yieldInput, cal calendar.Calendar, conv calendar.BusinessDayConvention, opts bond.Options) (*yieldOutput, error) {
	issue, err := utils.ParseDate(in.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid issue_date: %w", err)
	}
	var accrual = issue
	if in.AccrualDate != "" {
		if accrual, err = utils.ParseDate(in.AccrualDate); err != nil {
			return nil, fmt.Errorf("invalid accrual_date: %w", err)
		}
	}
	maturity, err := utils.ParseDate(in.MaturityDate)
	if err != nil {
		return nil, fmt.Errorf("invalid maturity_date: %w", err)
	}
	settlement, err := utils.ParseDate(in.SettlementDate)
	if err != nil {
		return nil, fmt.Errorf("invalid settlement_date: %w", err)
	}
	if in.DayCount != "" {
		dc, err := utils.ParseDayCount(in.DayCount)
		if err != nil {
			return nil, err
		}
		opts.DayCount = dc
	}
	switch strings.ToLower(in.Quote) {
	case "":
	case "clean":
		opts.Quote = bond.QuoteClean
	case "dirty":
		opts.Quote = bond.QuoteDirty
	default:
		return nil, fmt.Errorf("unsupported quote %q (clean or dirty)", in.Quote)
	}

	b, err := bond.New(bond.Terms{
		IssueDate:        issue,
		AccrualStartDate: accrual,
		MaturityDate:     maturity,
		CouponRate:       in.Coupon / 100.0,
		FaceValue:        in.Face,
		Frequency:        in.Frequency,
	}, cal, conv)
	if err != nil {
		return nil, err
	}

	v := bond.NewValuation(b, in.Price, opts)
	y, err := v.CalculateYield(in.Price, settlement)
	if err != nil {
		return nil, err
	}
	dur, err := v.CalculateDuration(settlement)
	if err != nil {
		return nil, err
	}
	dv01, err := v.CalculateDV01(settlement)
	if err != nil {
		return nil, err
	}
	res := v.Result()

	return &yieldOutput{
		TaskID:           in.TaskID,
		SettlementDate:   in.SettlementDate,
		Price:            in.Price,
		Yield:            y,
		Iterations:       res.Iterations,
		ModifiedDuration: dur,
		DV01:             dv01,
		AccruedInterest:  v.CalculateAccruedInterest(settlement),
	}, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func parseYieldInputs(raw []byte) ([]yieldInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	if trimmed[0] == '[' {
		var inputs []yieldInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}
	var input yieldInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []yieldInput{input}, false, nil
}
