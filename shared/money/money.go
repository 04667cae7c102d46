// Package money holds monetary amounts as integer minor units (pence) and
// converts to and from decimal text at the edges.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of minor-unit digits per major unit.
const Scale = 2

// ErrInvalid is returned for values that are not representable as an Amount:
// more than two decimal places, NaN/Inf, or outside the int64 range.
var ErrInvalid = errors.New("invalid monetary amount")

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Amount is a signed monetary value in minor units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

func FromMinor(v int64) Amount { return Amount(v) }

// FromMajor converts whole units (e.g. pounds) to an Amount.
func FromMajor(v int64) Amount { return Amount(v * 100) }

// FromDecimal converts a decimal value, rejecting anything finer than a penny.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	shifted := d.Shift(Scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalid, d.String(), Scale)
	}
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalid, d.String())
	}
	return Amount(shifted.IntPart()), nil
}

// Parse reads a decimal string such as "1500", "1,500.50" or "£20".
func Parse(s string) (Amount, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "£")
	clean = strings.ReplaceAll(clean, ",", "")
	if clean == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalid)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return FromDecimal(d)
}

// FromFloat converts a float64, as produced by JSON decoding, using its
// shortest decimal representation.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalid, f)
	}
	return FromDecimal(decimal.NewFromFloat(f))
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Minor() int64 { return int64(a) }

func (a Amount) Decimal() decimal.Decimal { return decimal.New(int64(a), -Scale) }

// String renders the amount with exactly two decimals, e.g. "1500.00".
func (a Amount) String() string { return a.Decimal().StringFixed(Scale) }

func (a Amount) IsPositive() bool { return a > 0 }

func (a Amount) IsNegative() bool { return a < 0 }

func (a Amount) Neg() Amount { return -a }

// Add returns a+b, failing instead of wrapping around on overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: %s + %s overflows", ErrInvalid, a, b)
	}
	return a + b, nil
}

// Format renders the amount for end users in the given currency.
func Format(a Amount, currency string) string {
	switch strings.ToUpper(currency) {
	case "GBP", "":
		if a < 0 {
			return "-£" + a.Neg().String()
		}
		return "£" + a.String()
	default:
		return a.String() + " " + strings.ToUpper(currency)
	}
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, string(b))
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
