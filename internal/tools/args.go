package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/eaglebank/ledger-service/internal/ledger"
	"github.com/eaglebank/ledger-service/shared/money"
)

// Args are the decoded JSON arguments of a tool call. Intent extractors are
// loose with types, so numbers may arrive as float64, json.Number or strings.
type Args map[string]any

// lookup returns the first present key.
func (a Args) lookup(keys ...string) (any, string, bool) {
	for _, k := range keys {
		if v, ok := a[k]; ok && v != nil {
			return v, k, true
		}
	}
	return nil, keys[0], false
}

func missing(key string) error {
	return fmt.Errorf("Missing required argument: %s", key)
}

// AccountNo reads a positive account number.
func (a Args) AccountNo(keys ...string) (int64, error) {
	v, key, ok := a.lookup(keys...)
	if !ok {
		return 0, missing(key)
	}
	var n int64
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt64 || t < math.MinInt64 {
			return 0, fmt.Errorf("Invalid %s: %v", key, t)
		}
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("Invalid %s: %s", key, t)
		}
		n = i
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(t), "#")
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("Invalid %s: %q", key, t)
		}
		n = i
	default:
		return 0, fmt.Errorf("Invalid %s: %v", key, v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("Invalid %s: %d", key, n)
	}
	return n, nil
}

// Amount reads a monetary amount in major units. Sign is not checked here;
// the ledger rejects non-positive amounts.
func (a Args) Amount(keys ...string) (money.Amount, error) {
	v, key, ok := a.lookup(keys...)
	if !ok {
		return 0, missing(key)
	}
	var (
		amt money.Amount
		err error
	)
	switch t := v.(type) {
	case float64:
		amt, err = money.FromFloat(t)
	case int:
		amt = money.FromMajor(int64(t))
	case int64:
		amt = money.FromMajor(t)
	case json.Number:
		amt, err = money.Parse(t.String())
	case string:
		amt, err = money.Parse(t)
	default:
		err = money.ErrInvalid
	}
	if err != nil {
		return 0, ledger.InvalidAmount("%v is not a valid amount", v)
	}
	return amt, nil
}

// String reads an optional string argument.
func (a Args) String(keys ...string) string {
	v, _, ok := a.lookup(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Int reads an optional positive integer, returning def when absent.
func (a Args) Int(def int, keys ...string) (int, error) {
	if _, _, ok := a.lookup(keys...); !ok {
		return def, nil
	}
	n, err := a.AccountNo(keys...)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("Invalid %s: %d", keys[0], n)
	}
	return int(n), nil
}
