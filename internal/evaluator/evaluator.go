package evaluator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Classification is the position of a price relative to the alert band.
type Classification string

const (
	Below  Classification = "below"
	Above  Classification = "above"
	Within Classification = "within"
)

// Bounds is the inclusive safe band [Lower, Upper] in USD.
type Bounds struct {
	Lower decimal.Decimal
	Upper decimal.Decimal
}

// Classify places price relative to b. Prices equal to either bound are Within.
func Classify(price decimal.Decimal, b Bounds) Classification {
	switch {
	case price.LessThan(b.Lower):
		return Below
	case price.GreaterThan(b.Upper):
		return Above
	default:
		return Within
	}
}

// Crossed reports whether c falls outside the band.
func (c Classification) Crossed() bool {
	return c == Below || c == Above
}

// Threshold returns the bound that c crossed, or zero for Within.
func (b Bounds) Threshold(c Classification) decimal.Decimal {
	switch c {
	case Below:
		return b.Lower
	case Above:
		return b.Upper
	default:
		return decimal.Zero
	}
}

// AlertMessage renders the user-facing alert line for a crossing.
// The boolean is false when c does not warrant an alert.
func AlertMessage(c Classification, b Bounds) (string, bool) {
	switch c {
	case Below:
		return fmt.Sprintf("Alert: Bitcoin price has fallen below the threshold $%s", b.Lower.StringFixed(2)), true
	case Above:
		return fmt.Sprintf("Alert: Bitcoin price has risen above the threshold $%s", b.Upper.StringFixed(2)), true
	default:
		return "", false
	}
}
