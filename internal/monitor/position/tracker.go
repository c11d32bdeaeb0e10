package position

import (
	"fmt"

	"depthwatch/pkg/market"

	"github.com/shopspring/decimal"
)

// DefaultFeeRate is the exchange taker fee applied to every sale (0.1%).
var DefaultFeeRate = decimal.RequireFromString("0.001")

type EventKind string

const (
	EventNewBuy  EventKind = "new_buy"
	EventNewSell EventKind = "new_sell"
)

// Event reports an order that appeared since the previous observation.
type Event struct {
	Kind   EventKind
	Symbol string
	Order  market.Order

	// RealizedGain is set on sells whose opening buy is known.
	RealizedGain *decimal.Decimal
}

// Text is the notification message of the event.
func (e Event) Text() string {
	if e.Kind == EventNewBuy {
		return "you made a new BUY order"
	}
	return "you made a new SELL order"
}

// GainLine formats the realized gain, if any, as "<SYMBOL> - last gain: G$".
func (e Event) GainLine() (string, bool) {
	if e.RealizedGain == nil {
		return "", false
	}
	return fmt.Sprintf("%s - last gain: %s$", e.Symbol, e.RealizedGain.StringFixed(2)), true
}

// Tracker follows the most recent order of one symbol. At most one open buy
// is tracked; a sell closes it.
type Tracker struct {
	symbol string
	fee    decimal.Decimal

	seeded          bool
	lastBuy         *market.Order
	lastBuyNotional decimal.Decimal
	lastSell        *market.Order
	lastSellID      string // last sell already reported
}

func NewTracker(symbol string, fee decimal.Decimal) *Tracker {
	return &Tracker{symbol: symbol, fee: fee}
}

// Observe inspects the most recent order of the history (oldest first) and
// returns the events it implies. A buy seen on the first call only seeds the
// tracker; a sell is reported since no sell has been reported yet.
func (t *Tracker) Observe(orders []market.Order) []Event {
	first := !t.seeded
	t.seeded = true

	if len(orders) == 0 {
		return nil
	}
	latest := orders[len(orders)-1]

	switch latest.Side {
	case market.SideBuy:
		if t.lastBuy != nil && t.lastBuy.ID == latest.ID {
			return nil
		}
		t.lastBuy = &latest
		t.lastBuyNotional = latest.OpeningNotional()
		t.lastSell = nil
		if first {
			return nil
		}
		return []Event{{Kind: EventNewBuy, Symbol: t.symbol, Order: latest}}

	case market.SideSell:
		if t.lastSellID == latest.ID {
			return nil
		}
		t.lastSellID = latest.ID
		t.lastSell = &latest

		ev := Event{Kind: EventNewSell, Symbol: t.symbol, Order: latest}
		if opening := t.openingBuy(orders); opening != nil {
			gain := t.realizedGain(latest, *opening)
			ev.RealizedGain = &gain
		}

		t.lastBuy = nil
		t.lastBuyNotional = decimal.Zero
		return []Event{ev}
	}

	return nil
}

// openingBuy is the buy a sell closes: the preceding order when it is a buy,
// otherwise the tracked open buy.
func (t *Tracker) openingBuy(orders []market.Order) *market.Order {
	if n := len(orders); n >= 2 && orders[n-2].Side == market.SideBuy {
		return &orders[n-2]
	}
	return t.lastBuy
}

// realizedGain is the net sale proceeds minus what the buy committed.
func (t *Tracker) realizedGain(sell, buy market.Order) decimal.Decimal {
	proceeds := sell.CumulativeQuoteQty.Mul(decimal.NewFromInt(1).Sub(t.fee))
	return proceeds.Sub(buy.OpeningNotional())
}

// OpenBuy returns the tracked open buy, if any.
func (t *Tracker) OpenBuy() (market.Order, bool) {
	if t.lastBuy == nil {
		return market.Order{}, false
	}
	return *t.lastBuy, true
}

// LastSell returns the most recent sell seen since the last buy.
func (t *Tracker) LastSell() (market.Order, bool) {
	if t.lastSell == nil {
		return market.Order{}, false
	}
	return *t.lastSell, true
}

// Unrealized values the open buy at bestBid, net of the fee. ok is false when
// no buy is open.
func (t *Tracker) Unrealized(bestBid float64) (PnL, bool) {
	if t.lastBuy == nil || t.lastBuyNotional.IsZero() || t.lastBuy.OrigQty.IsZero() {
		return PnL{}, false
	}

	qty := t.lastBuy.OrigQty
	bid := decimal.NewFromFloat(bestBid)

	gross := bid.Mul(qty)
	sell := gross.Sub(gross.Mul(t.fee))
	change := sell.Sub(t.lastBuyNotional)

	return PnL{
		Symbol:    t.symbol,
		Buy:       t.lastBuyNotional,
		Sell:      sell,
		Change:    change,
		ChangePct: change.Mul(decimal.NewFromInt(100)).Div(t.lastBuyNotional),
		BuyValue:  t.lastBuyNotional.Div(qty),
		SellValue: bid,
	}, true
}
