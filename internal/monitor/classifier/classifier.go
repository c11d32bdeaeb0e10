// Package classifier turns an order-book snapshot into notional bars and
// flags round-number ("private") and oversized ("barrier") levels.
package classifier

import (
	"errors"
	"math"

	"depthwatch/pkg/market"
)

// ErrEmptyBook is returned when a snapshot has no bids or no asks.
var ErrEmptyBook = errors.New("empty order book")

// Params are the per-symbol thresholds.
type Params struct {
	Height          float64 // reference notional scale
	BarrierFraction float64 // barrier threshold = Height × BarrierFraction
	RoundUnit       float64 // quantities that are exact multiples of this are private
	RoundTolerance  float64 // mantissa tolerance of a private notional
}

// Threshold is the notional at or above which a level is a barrier.
func (p Params) Threshold() float64 {
	return p.Height * p.BarrierFraction
}

// ClassifiedLevel is a book level with its derived flags.
type ClassifiedLevel struct {
	market.Level
	Notional float64 `json:"notional"`
	Private  bool    `json:"private"`
	Barrier  bool    `json:"barrier"`
}

// Analysis is the classified view of one snapshot.
type Analysis struct {
	Symbol   string
	Snapshot *market.OrderBookSnapshot
	Bids     []ClassifiedLevel
	Asks     []ClassifiedLevel
	Params   Params
}

// Classify computes notionals and flags for every level of the snapshot.
// It does not modify the snapshot.
func Classify(snapshot *market.OrderBookSnapshot, p Params) (*Analysis, error) {
	if snapshot.Empty() {
		return nil, ErrEmptyBook
	}

	return &Analysis{
		Symbol:   snapshot.Symbol,
		Snapshot: snapshot,
		Bids:     classifySide(snapshot.Bids, p),
		Asks:     classifySide(snapshot.Asks, p),
		Params:   p,
	}, nil
}

func classifySide(levels []market.Level, p Params) []ClassifiedLevel {
	out := make([]ClassifiedLevel, len(levels))
	threshold := p.Threshold()
	for i, lvl := range levels {
		n := lvl.Notional()
		out[i] = ClassifiedLevel{
			Level:    lvl,
			Notional: n,
			Private:  IsRoundQuantity(lvl.Quantity, p.RoundUnit) || IsRoundNotional(n, p.RoundTolerance),
			Barrier:  n >= threshold,
		}
	}
	return out
}

// IsRoundQuantity reports whether q is an exact multiple of unit.
func IsRoundQuantity(q, unit float64) bool {
	if unit <= 0 || q <= 0 {
		return false
	}
	return math.Trunc(q/unit)*unit == q
}

// IsRoundNotional reports whether the mantissa of n (n scaled into [1, 10))
// is within tol of a whole number, e.g. 2.004e5 or 6.998e3.
func IsRoundNotional(n, tol float64) bool {
	if n <= 0 || math.IsInf(n, 0) || math.IsNaN(n) {
		return false
	}
	mantissa := n / math.Pow(10, math.Floor(math.Log10(n)))
	_, frac := math.Modf(mantissa)
	return frac < tol || 1-frac < tol
}

// BestBid is the top bid level. Classify guarantees it exists.
func (a *Analysis) BestBid() ClassifiedLevel { return a.Bids[0] }

// BestAsk is the top ask level. Classify guarantees it exists.
func (a *Analysis) BestAsk() ClassifiedLevel { return a.Asks[0] }

// MaxNotional returns the largest notional on either side.
func (a *Analysis) MaxNotional() float64 {
	var m float64
	for _, l := range a.Bids {
		m = math.Max(m, l.Notional)
	}
	for _, l := range a.Asks {
		m = math.Max(m, l.Notional)
	}
	return m
}
