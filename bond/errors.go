package bond

import "errors"

var (
	// ErrInvalidSchedule is returned when bond dates cannot form a coupon schedule.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrYieldNotFound is returned when the yield solver cannot bracket or converge.
	ErrYieldNotFound = errors.New("yield not found")
	// ErrNegativePrice is returned for a price that is zero or negative.
	ErrNegativePrice = errors.New("non-positive price")
)

// Error kinds reported for failed bonds.
const (
	KindInvalidSchedule = "invalid_schedule"
	KindYieldNotFound   = "yield_not_found"
	KindNegativePrice   = "negative_price"
	KindInvalidInput    = "invalid_input"
)

// ErrorKind classifies err for reports. Nil yields "".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSchedule):
		return KindInvalidSchedule
	case errors.Is(err, ErrYieldNotFound):
		return KindYieldNotFound
	case errors.Is(err, ErrNegativePrice):
		return KindNegativePrice
	default:
		return KindInvalidInput
	}
}
