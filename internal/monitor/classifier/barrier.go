package classifier

import (
	"fmt"
	"strconv"

	"depthwatch/pkg/market"
)

// BarrierAlert is a barrier at the top of the book that has not been reported yet.
type BarrierAlert struct {
	Symbol   string
	Side     market.Side
	Price    float64
	Notional float64
}

func (a BarrierAlert) Text() string {
	kind := "ASK"
	if a.Side == market.SideBuy {
		kind = "BID"
	}
	return fmt.Sprintf("%s - %s BARRIER! %s", a.Symbol, kind, strconv.FormatFloat(a.Price, 'f', -1, 64))
}

// Key identifies the alert for deduplication in storage.
func (a BarrierAlert) Key() string {
	return string(a.Side) + "@" + strconv.FormatFloat(a.Price, 'f', -1, 64)
}

// BarrierMemory remembers the last barrier price reported on each side of one
// symbol. The zero value is ready to use.
type BarrierMemory struct {
	lastAsk    float64
	lastBid    float64
	hasLastAsk bool
	hasLastBid bool
}

// Check returns the alerts for the best ask and best bid (in that order) that
// are barriers at a price not already reported. A price is reported once and
// stays suppressed until that side's barrier price changes.
func (m *BarrierMemory) Check(a *Analysis) []BarrierAlert {
	var alerts []BarrierAlert

	if ask := a.BestAsk(); ask.Barrier && !(m.hasLastAsk && m.lastAsk == ask.Price) {
		m.lastAsk, m.hasLastAsk = ask.Price, true
		alerts = append(alerts, BarrierAlert{Symbol: a.Symbol, Side: market.SideSell, Price: ask.Price, Notional: ask.Notional})
	}

	if bid := a.BestBid(); bid.Barrier && !(m.hasLastBid && m.lastBid == bid.Price) {
		m.lastBid, m.hasLastBid = bid.Price, true
		alerts = append(alerts, BarrierAlert{Symbol: a.Symbol, Side: market.SideBuy, Price: bid.Price, Notional: bid.Notional})
	}

	return alerts
}
