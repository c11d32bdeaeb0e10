package binance

import (
	"context"
	"fmt"
	"time"

	"depthwatch/pkg/market"

	gobinance "github.com/adshao/go-binance/v2"
)

// maxKlines is the largest page the klines endpoint serves.
const maxKlines = 1000

// Client adapts the go-binance REST client to market.Source.
type Client struct {
	api *gobinance.Client
}

// NewClient creates a Binance spot client. baseURL overrides the default
// endpoint when non-empty (e.g. the testnet).
func NewClient(apiKey, apiSecret, baseURL string) *Client {
	api := gobinance.NewClient(apiKey, apiSecret)
	if baseURL != "" {
		api.BaseURL = baseURL
	}
	return &Client{api: api}
}

func (c *Client) OrderBook(ctx context.Context, symbol string, limit int) (*market.OrderBookSnapshot, error) {
	res, err := c.api.NewDepthService().Symbol(symbol).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance depth %s: %w", symbol, err)
	}

	snapshot, err := ToSnapshot(symbol, res)
	if err != nil {
		return nil, fmt.Errorf("binance depth %s: %w", symbol, err)
	}
	return snapshot, nil
}

func (c *Client) Orders(ctx context.Context, symbol string) ([]market.Order, error) {
	res, err := c.api.NewListOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance all orders %s: %w", symbol, err)
	}

	orders, err := ToOrders(res)
	if err != nil {
		return nil, fmt.Errorf("binance all orders %s: %w", symbol, err)
	}
	return orders, nil
}

func (c *Client) Candles(ctx context.Context, symbol, interval string, start, end time.Time) ([]market.Candle, error) {
	res, err := c.api.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(maxKlines).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	candles, err := ToCandles(res)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}
	return candles, nil
}
