package portfolio

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/utils"
)

// BondRow is the per-position line of a report. Numeric fields are zero for
// failed positions; Error and ErrorKind say why.
type BondRow struct {
	PositionID       string  `json:"position_id"`
	MaturityDate     string  `json:"maturity_date"`
	// MaturityYears is nil when the bond could not be built.
	MaturityYears    *int    `json:"maturity_years,omitempty"`
	Notional         float64 `json:"notional"`
	Price            float64 `json:"price"`
	SettlementDate   string  `json:"settlement_date,omitempty"`
	Yield            float64 `json:"ytm"`
	ModifiedDuration float64 `json:"duration"`
	AccruedInterest  float64 `json:"accrued_interest"`
	DV01             float64 `json:"dv01"`
	ErrorKind        string  `json:"error_kind,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// Report is the full output of a portfolio run.
type Report struct {
	Bonds     []BondRow     `json:"bonds"`
	Buckets   []BucketRisk  `json:"buckets"`
	Scenarios []ScenarioPnL `json:"scenarios"`
}

// Report assembles per-bond rows, maturity buckets and scenario PnL.
func (p *Portfolio) Report(shiftsBps []int) Report {
	rows := make([]BondRow, 0, len(p.positions))
	for _, pos := range p.positions {
		row := BondRow{
			PositionID:    pos.ID,
			MaturityDate:  pos.Terms.MaturityDate.Format(utils.DateLayout),
			Notional:      pos.Notional,
			Price:         pos.Price,
		}
		if pos.Result.HasMaturityYears() {
			years := pos.Result.MaturityYears
			row.MaturityYears = &years
		}
		if !pos.Result.SettlementDate.IsZero() {
			row.SettlementDate = pos.Result.SettlementDate.Format(utils.DateLayout)
		}
		if pos.Err != nil {
			row.ErrorKind = bond.ErrorKind(pos.Err)
			row.Error = pos.Err.Error()
		} else {
			row.Yield = pos.Result.Yield
			row.ModifiedDuration = pos.Result.ModifiedDuration
			row.AccruedInterest = pos.Result.AccruedInterest
			row.DV01 = pos.Result.DV01
		}
		rows = append(rows, row)
	}
	return Report{
		Bonds:     rows,
		Buckets:   p.AggregateByMaturity(),
		Scenarios: p.ComputeScenarioPnL(shiftsBps),
	}
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes the three report tables as aligned text.
func (r Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, "1. Yield to maturity, duration, accrued interest and DV01 per bond")
	fmt.Fprintln(tw, "Position\tMaturity\tYTM\tDuration\tAccrued\tDV01\tStatus\t")
	for _, b := range r.Bonds {
		if b.ErrorKind != "" {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\tFAILED %s\t\n", b.PositionID, b.MaturityDate, b.ErrorKind)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.6f\t%.4f\t%.6f\t%.6f\tok\t\n",
			b.PositionID, b.MaturityDate, b.Yield, b.ModifiedDuration, b.AccruedInterest, b.DV01)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "2. Notional, DV01 and accrued interest by maturity bucket")
	fmt.Fprintln(tw, "Maturity\tNotional\tDV01\tAccrued\tPositions\tFailed\t")
	for _, b := range r.Buckets {
		fmt.Fprintf(tw, "%dY\t%.2f\t%.4f\t%.6f\t%d\t%d\t\n",
			b.MaturityYears, b.TotalNotional, b.WeightedDV01, b.TotalAccrued, b.Positions, b.Failed)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "3. Portfolio PnL under parallel yield shifts")
	fmt.Fprintln(tw, "Shift (bp)\tPnL\t")
	for _, s := range r.Scenarios {
		fmt.Fprintf(tw, "%+d\t%.2f\t\n", s.ShiftBps, s.PnL)
	}

	return tw.Flush()
}
