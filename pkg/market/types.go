package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Level is a single price level of an order book.
type Level struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Notional returns the quote value of the level (price × quantity).
func (l Level) Notional() float64 {
	return l.Price * l.Quantity
}

// OrderBookSnapshot is a point-in-time view of the book.
// Bids are ordered by descending price, asks by ascending price.
type OrderBookSnapshot struct {
	Symbol       string    `json:"symbol"`
	Bids         []Level   `json:"bids"`
	Asks         []Level   `json:"asks"`
	LastUpdateID int64     `json:"lastUpdateId"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order is a historical account order as reported by the exchange.
type Order struct {
	ID                 string          `json:"id"`
	Symbol             string          `json:"symbol"`
	Side               Side            `json:"side"`
	Status             string          `json:"status"`
	Price              decimal.Decimal `json:"price"`
	OrigQty            decimal.Decimal `json:"origQty"`            // base quantity requested
	OrigQuoteQty       decimal.Decimal `json:"origQuoteQty"`       // quote amount requested (market orders by quote)
	CumulativeQuoteQty decimal.Decimal `json:"cumulativeQuoteQty"` // quote amount actually filled
	Time               time.Time       `json:"time"`
}

// OpeningNotional is the quote amount the order committed.
// Limit orders carry no quote amount, so the filled quote is used instead.
func (o Order) OpeningNotional() decimal.Decimal {
	if !o.OrigQuoteQty.IsZero() {
		return o.OrigQuoteQty
	}
	return o.CumulativeQuoteQty
}

// Candle is one kline bar.
type Candle struct {
	OpenTime time.Time `json:"openTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Source is the exchange client the monitor polls.
type Source interface {
	OrderBook(ctx context.Context, symbol string, limit int) (*OrderBookSnapshot, error)
	// Orders returns the account order history for symbol, oldest first.
	Orders(ctx context.Context, symbol string) ([]Order, error)
	Candles(ctx context.Context, symbol, interval string, start, end time.Time) ([]Candle, error)
}
