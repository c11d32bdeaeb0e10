package bybit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"depthwatch/pkg/market"
)

const (
	DefaultBaseURL = "https://api.bybit.com"

	orderBookEndpoint    = "/v5/market/orderbook"
	klineEndpoint        = "/v5/market/kline"
	orderHistoryEndpoint = "/v5/order/history"

	spotCategory = "spot"
	maxKlines    = 1000
	maxOrders    = 50
)

// ErrAPI is returned when Bybit answers with a non-zero retCode.
var ErrAPI = errors.New("bybit api error")

type RESTClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &RESTClient{
		baseURL:    baseURL,
		recvWindow: "5000",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithCredentials enables the signed account endpoints.
func (c *RESTClient) WithCredentials(apiKey, apiSecret string, recvWindow int) *RESTClient {
	c.apiKey = apiKey
	c.apiSecret = apiSecret
	if recvWindow > 0 {
		c.recvWindow = strconv.Itoa(recvWindow)
	}
	return c
}

// OrderBook fetches a spot order book snapshot of up to limit levels per side.
func (c *RESTClient) OrderBook(ctx context.Context, symbol string, limit int) (*market.OrderBookSnapshot, error) {
	params := url.Values{}
	params.Set("category", spotCategory)
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	var result OrderBookResponse
	if err := c.get(ctx, orderBookEndpoint, params, false, &result); err != nil {
		return nil, fmt.Errorf("bybit orderbook %s: %w", symbol, err)
	}

	bids, err := ParseLevels(result.Bids)
	if err != nil {
		return nil, fmt.Errorf("bybit orderbook %s bids: %w", symbol, err)
	}
	asks, err := ParseLevels(result.Asks)
	if err != nil {
		return nil, fmt.Errorf("bybit orderbook %s asks: %w", symbol, err)
	}

	return &market.OrderBookSnapshot{
		Symbol:       symbol,
		Bids:         bids,
		Asks:         asks,
		LastUpdateID: result.UpdateID,
		FetchedAt:    time.Now(),
	}, nil
}

// Orders fetches the most recent page of the account's order history.
func (c *RESTClient) Orders(ctx context.Context, symbol string) ([]market.Order, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, fmt.Errorf("bybit order history %s: missing api credentials", symbol)
	}

	params := url.Values{}
	params.Set("category", spotCategory)
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(maxOrders))

	var result OrderHistoryResponse
	if err := c.get(ctx, orderHistoryEndpoint, params, true, &result); err != nil {
		return nil, fmt.Errorf("bybit order history %s: %w", symbol, err)
	}

	orders, err := ToOrders(result.List)
	if err != nil {
		return nil, fmt.Errorf("bybit order history %s: %w", symbol, err)
	}
	return orders, nil
}

func (c *RESTClient) Candles(ctx context.Context, symbol, interval string,
	start, end time.Time) ([]market.Candle, error) {
	meta, err := ParseKlineInterval(interval)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("category", spotCategory)
	params.Set("symbol", symbol)
	params.Set("interval", meta.APIValue)
	params.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	params.Set("limit", strconv.Itoa(maxKlines))

	var result KlinesResponse
	if err := c.get(ctx, klineEndpoint, params, false, &result); err != nil {
		return nil, fmt.Errorf("bybit klines %s: %w", symbol, err)
	}

	return ParseKlineList(result.List), nil
}

// get performs a GET request and decodes the envelope's result into out.
func (c *RESTClient) get(ctx context.Context, endpoint string, params url.Values, signed bool, out any) error {
	query := params.Encode()

	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if signed {
		timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		req.Header.Set("X-BAPI-API-KEY", c.apiKey)
		req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
		req.Header.Set("X-BAPI-RECV-WINDOW", c.recvWindow)
		req.Header.Set("X-BAPI-SIGN", Sign(c.apiSecret, timestamp, c.apiKey, c.recvWindow, query))
	}

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bybit http %d: %s", resp.StatusCode, body)
	}

	var rawResp BybitResponse
	if err := json.NewDecoder(resp.Body).Decode(&rawResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if rawResp.RetCode != 0 {
		return fmt.Errorf("%w: %s (code %d)", ErrAPI, rawResp.RetMsg, rawResp.RetCode)
	}

	if err := json.Unmarshal(rawResp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Sign computes the v5 HMAC-SHA256 signature: timestamp + key + recvWindow + payload.
func Sign(secret, timestamp, apiKey, recvWindow, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp + apiKey + recvWindow + payload))
	return hex.EncodeToString(h.Sum(nil))
}
