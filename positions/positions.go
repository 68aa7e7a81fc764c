// Package positions decodes position records into typed portfolio positions.
package positions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/bondrisk/bond"
	"github.com/meenmo/bondrisk/portfolio"
	"github.com/meenmo/bondrisk/utils"
)

// Record is one position row as it arrives from the desk feed. Coupon is in
// percent; dates are YYYY-MM-DD.
type Record struct {
	ID              string   `json:"id,omitempty" yaml:"id,omitempty"`
	IssueDate       string   `json:"issue_date" yaml:"issue_date"`
	AccrualDate     string   `json:"accrual_date" yaml:"accrual_date"`
	Coupon          float64  `json:"coupon" yaml:"coupon"`
	FirstCouponDate string   `json:"first_coupon_date,omitempty" yaml:"first_coupon_date,omitempty"`
	MaturityDate    string   `json:"maturity_date" yaml:"maturity_date"`
	Price           float64  `json:"price" yaml:"price"`
	Date            string   `json:"date" yaml:"date"`
	Notional        Notional `json:"notional" yaml:"notional"`
	SettlementDate  string   `json:"settlement_date,omitempty" yaml:"settlement_date,omitempty"`
	Face            float64  `json:"face,omitempty" yaml:"face,omitempty"`
	Frequency       int      `json:"frequency,omitempty" yaml:"frequency,omitempty"`
}

// Notional accepts a JSON/YAML number or a string with thousands
// separators such as "1,000,000".
type Notional float64

func parseNotional(s string) (Notional, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid notional %q", s)
	}
	return Notional(v), nil
}

func (n *Notional) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := parseNotional(s)
		if err != nil {
			return err
		}
		*n = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("invalid notional %s", string(b))
	}
	*n = Notional(f)
	return nil
}

func (n *Notional) UnmarshalYAML(value *yaml.Node) error {
	v, err := parseNotional(value.Value)
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// Parse decodes records from JSON (a single object or an array) or YAML (a
// sequence, or a mapping with a "positions" key).
func Parse(raw []byte, format string) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	var records []Record
	switch strings.ToLower(format) {
	case "yaml", "yml":
		var root yaml.Node
		if err := yaml.Unmarshal(trimmed, &root); err != nil {
			return nil, fmt.Errorf("parse YAML positions: %w", err)
		}
		if len(root.Content) == 0 {
			return nil, fmt.Errorf("empty input")
		}
		doc := root.Content[0]
		switch doc.Kind {
		case yaml.SequenceNode:
			if err := doc.Decode(&records); err != nil {
				return nil, fmt.Errorf("parse YAML positions: %w", err)
			}
		case yaml.MappingNode:
			var book struct {
				Positions []Record `yaml:"positions"`
			}
			if err := doc.Decode(&book); err != nil {
				return nil, fmt.Errorf("parse YAML positions: %w", err)
			}
			records = book.Positions
		default:
			return nil, fmt.Errorf("parse YAML positions: expected a list or a positions mapping")
		}
	default:
		if trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &records); err != nil {
				return nil, fmt.Errorf("parse JSON positions: %w", err)
			}
		} else {
			var rec Record
			if err := json.Unmarshal(trimmed, &rec); err != nil {
				return nil, fmt.Errorf("parse JSON positions: %w", err)
			}
			records = []Record{rec}
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no positions in input")
	}

	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
	}
	return records, nil
}

// LoadFile reads records from path; .yaml/.yml is YAML, anything else JSON.
func LoadFile(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	format := "json"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		format = "yaml"
	}
	return Parse(raw, format)
}

func optionalDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	d, err := utils.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func requiredDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	return optionalDate(field, s)
}

// Position converts the record into a typed portfolio position.
func (r Record) Position() (portfolio.Position, error) {
	issue, err := requiredDate("issue_date", r.IssueDate)
	if err != nil {
		return portfolio.Position{}, err
	}
	accrual, err := optionalDate("accrual_date", r.AccrualDate)
	if err != nil {
		return portfolio.Position{}, err
	}
	firstCoupon, err := optionalDate("first_coupon_date", r.FirstCouponDate)
	if err != nil {
		return portfolio.Position{}, err
	}
	maturity, err := requiredDate("maturity_date", r.MaturityDate)
	if err != nil {
		return portfolio.Position{}, err
	}
	valuation, err := requiredDate("date", r.Date)
	if err != nil {
		return portfolio.Position{}, err
	}
	settlement, err := optionalDate("settlement_date", r.SettlementDate)
	if err != nil {
		return portfolio.Position{}, err
	}

	return portfolio.Position{
		ID: r.ID,
		Terms: bond.Terms{
			IssueDate:        issue,
			AccrualStartDate: accrual,
			FirstCouponDate:  firstCoupon,
			MaturityDate:     maturity,
			CouponRate:       r.Coupon / 100.0,
			FaceValue:        r.Face,
			Frequency:        r.Frequency,
		},
		Notional:       float64(r.Notional),
		Price:          r.Price,
		ValuationDate:  valuation,
		SettlementDate: settlement,
	}, nil
}

// ToPositions converts every record, naming the failing record on error.
func ToPositions(records []Record) ([]portfolio.Position, error) {
	out := make([]portfolio.Position, 0, len(records))
	for i, r := range records {
		p, err := r.Position()
		if err != nil {
			return nil, fmt.Errorf("position %d (%s): %w", i, r.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}
