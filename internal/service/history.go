package service

import (
	"time"

	"github.com/shopspring/decimal"

	"btc-price-monitor/internal/evaluator"
)

// Observation is the outcome of one polling cycle.
type Observation struct {
	At             time.Time
	Price          decimal.Decimal
	Classification evaluator.Classification
	Alerted        bool
	Err            error
}

// OK reports whether the cycle produced a price.
func (o Observation) OK() bool {
	return o.Err == nil
}

// History keeps the most recent observations of the running session in memory.
// It is not safe for concurrent use.
type History struct {
	max   int
	items []Observation
}

// NewHistory returns a History retaining at most max observations.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 1
	}
	return &History{max: max}
}

// Add appends o, evicting the oldest observation once full.
func (h *History) Add(o Observation) {
	if h == nil {
		return
	}
	if len(h.items) == h.max {
		copy(h.items, h.items[1:])
		h.items = h.items[:len(h.items)-1]
	}
	h.items = append(h.items, o)
}

// Observations returns a copy of the retained observations, oldest first.
func (h *History) Observations() []Observation {
	if h == nil {
		return nil
	}
	out := make([]Observation, len(h.items))
	copy(out, h.items)
	return out
}

// Summary aggregates the retained observations.
type Summary struct {
	Checks   int
	Failures int
	Alerts   int
	Min      decimal.Decimal
	Max      decimal.Decimal
	Last     decimal.Decimal
}

// Summary computes counts and the price range over the retained observations.
func (h *History) Summary() Summary {
	var s Summary
	if h == nil {
		return s
	}
	seen := false
	for _, o := range h.items {
		s.Checks++
		if !o.OK() {
			s.Failures++
			continue
		}
		if o.Alerted {
			s.Alerts++
		}
		if !seen || o.Price.LessThan(s.Min) {
			s.Min = o.Price
		}
		if !seen || o.Price.GreaterThan(s.Max) {
			s.Max = o.Price
		}
		s.Last = o.Price
		seen = true
	}
	return s
}
