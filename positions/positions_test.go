package positions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonBook = `[
  {"id": "UST-5Y", "issue_date": "2019-06-15", "accrual_date": "2019-06-15", "coupon": 2.5,
   "first_coupon_date": "2019-12-15", "maturity_date": "2024-06-15", "price": 101.0,
   "date": "2021-10-12", "notional": "1,000,000"},
  {"issue_date": "2020-01-15", "accrual_date": "2020-01-15", "coupon": 4,
   "maturity_date": "2030-01-15", "price": 95, "date": "2021-10-12", "notional": 2000000,
   "settlement_date": "2021-10-14", "face": 1000, "frequency": 1}
]`

func TestParse_JSONArray(t *testing.T) {
	t.Parallel()

	records, err := Parse([]byte(jsonBook), "json")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "UST-5Y", records[0].ID)
	assert.Equal(t, Notional(1_000_000), records[0].Notional)
	assert.Equal(t, Notional(2_000_000), records[1].Notional)

	_, err = uuid.Parse(records[1].ID)
	assert.NoError(t, err, "missing ids are filled with a UUID")

	positions, err := ToPositions(records)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	p := positions[0]
	assert.InDelta(t, 0.025, p.Terms.CouponRate, 1e-15)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), p.Terms.MaturityDate)
	assert.Equal(t, time.Date(2019, 12, 15, 0, 0, 0, 0, time.UTC), p.Terms.FirstCouponDate)
	assert.True(t, p.SettlementDate.IsZero())

	q := positions[1]
	assert.Equal(t, 1000.0, q.Terms.FaceValue)
	assert.Equal(t, 1, q.Terms.Frequency)
	assert.Equal(t, time.Date(2021, 10, 14, 0, 0, 0, 0, time.UTC), q.SettlementDate)
}

func TestParse_JSONObject(t *testing.T) {
	t.Parallel()

	records, err := Parse([]byte(`{"id":"A","issue_date":"2020-01-15","coupon":3,"maturity_date":"2025-01-15","price":99,"date":"2021-01-15","notional":10}`), "json")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].ID)
}

func TestParse_YAML(t *testing.T) {
	t.Parallel()

	doc := `
positions:
  - id: GILT-10Y
    issue_date: "2020-01-15"
    accrual_date: "2020-01-15"
    coupon: 4
    maturity_date: "2030-01-15"
    price: 95
    date: "2021-10-12"
    notional: 1,500,000
`
	records, err := Parse([]byte(doc), "yaml")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Notional(1_500_000), records[0].Notional)

	seq := "- {id: X, issue_date: '2020-01-15', coupon: 1, maturity_date: '2022-01-15', price: 100, date: '2021-01-15', notional: 5}\n"
	records, err = Parse([]byte(seq), "yaml")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Notional(5), records[0].Notional)
}

func TestParse_YAMLLeadingComment(t *testing.T) {
	t.Parallel()

	doc := `# book
- id: C1
  issue_date: "2020-01-15"
  coupon: 2
  maturity_date: "2025-01-15"
  price: 99.5
  date: "2021-01-15"
  notional: "250,000"
`
	records, err := Parse([]byte(doc), "yaml")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "C1", records[0].ID)
	assert.Equal(t, Notional(250_000), records[0].Notional)

	records, err = Parse([]byte("# book\npositions:\n  - {id: C2, notional: 1}\n"), "yaml")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "C2", records[0].ID)

	_, err = Parse([]byte("just a scalar"), "yaml")
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("  "), "json")
	assert.Error(t, err)

	_, err = Parse([]byte(`[]`), "json")
	assert.Error(t, err)

	_, err = Parse([]byte(`[{"notional":"ten"}]`), "json")
	assert.Error(t, err)

	records, err := Parse([]byte(`[{"id":"B","issue_date":"15/01/2020","maturity_date":"2025-01-15","date":"2021-01-15","notional":1}]`), "json")
	require.NoError(t, err)
	_, err = ToPositions(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue_date")
	assert.Contains(t, err.Error(), "(B)")

	records, err = Parse([]byte(`[{"id":"C","issue_date":"2020-01-15","date":"2021-01-15","notional":1}]`), "json")
	require.NoError(t, err)
	_, err = ToPositions(records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maturity_date is required")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "book.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonBook), 0644))

	records, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
