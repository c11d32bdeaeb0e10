package binance

import (
	"fmt"
	"strconv"
	"time"

	"depthwatch/pkg/market"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// ToSnapshot converts a depth response. Any malformed level fails the whole snapshot.
func ToSnapshot(symbol string, res *gobinance.DepthResponse) (*market.OrderBookSnapshot, error) {
	if res == nil {
		return nil, fmt.Errorf("empty depth response")
	}

	snapshot := &market.OrderBookSnapshot{
		Symbol:       symbol,
		Bids:         make([]market.Level, 0, len(res.Bids)),
		Asks:         make([]market.Level, 0, len(res.Asks)),
		LastUpdateID: res.LastUpdateID,
		FetchedAt:    time.Now(),
	}

	for _, b := range res.Bids {
		lvl, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return nil, fmt.Errorf("bid: %w", err)
		}
		snapshot.Bids = append(snapshot.Bids, lvl)
	}
	for _, a := range res.Asks {
		lvl, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return nil, fmt.Errorf("ask: %w", err)
		}
		snapshot.Asks = append(snapshot.Asks, lvl)
	}

	return snapshot, nil
}

func parseLevel(price, quantity string) (market.Level, error) {
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return market.Level{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	q, err := strconv.ParseFloat(quantity, 64)
	if err != nil {
		return market.Level{}, fmt.Errorf("parse quantity %q: %w", quantity, err)
	}
	return market.Level{Price: p, Quantity: q}, nil
}

// ToOrders converts the allOrders response, keeping the exchange's order (oldest first).
func ToOrders(res []*gobinance.Order) ([]market.Order, error) {
	out := make([]market.Order, 0, len(res))
	for _, o := range res {
		if o == nil {
			continue
		}

		price, err := parseDecimal(o.Price)
		if err != nil {
			return nil, fmt.Errorf("order %d price: %w", o.OrderID, err)
		}
		origQty, err := parseDecimal(o.OrigQuantity)
		if err != nil {
			return nil, fmt.Errorf("order %d origQty: %w", o.OrderID, err)
		}
		origQuote, err := parseDecimal(o.OrigQuoteOrderQuantity)
		if err != nil {
			return nil, fmt.Errorf("order %d origQuoteOrderQty: %w", o.OrderID, err)
		}
		cumQuote, err := parseDecimal(o.CummulativeQuoteQuantity)
		if err != nil {
			return nil, fmt.Errorf("order %d cummulativeQuoteQty: %w", o.OrderID, err)
		}

		out = append(out, market.Order{
			ID:                 strconv.FormatInt(o.OrderID, 10),
			Symbol:             o.Symbol,
			Side:               market.Side(o.Side),
			Status:             string(o.Status),
			Price:              price,
			OrigQty:            origQty,
			OrigQuoteQty:       origQuote,
			CumulativeQuoteQty: cumQuote,
			Time:               time.UnixMilli(o.Time),
		})
	}
	return out, nil
}

// parseDecimal treats an empty field as zero; the API omits quote fields on old orders.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func ToCandles(res []*gobinance.Kline) ([]market.Candle, error) {
	out := make([]market.Candle, 0, len(res))
	for _, k := range res {
		if k == nil {
			continue
		}

		vals := make([]float64, 5)
		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("kline %d: parse %q: %w", k.OpenTime, raw, err)
			}
			vals[i] = v
		}

		out = append(out, market.Candle{
			OpenTime: time.UnixMilli(k.OpenTime),
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		})
	}
	return out, nil
}
