package bybit

import "encoding/json"

// BybitResponse represents a generic response from Bybit's V5 REST API.
// This structure covers the standard response envelope used across all endpoints.
type BybitResponse struct {
	RetCode    int                    `json:"retCode"`    // 0 means success; non-zero indicates an error code
	RetMsg     string                 `json:"retMsg"`     // Human-readable message describing the result or error
	Result     json.RawMessage        `json:"result"`     // Delay decoding // Main response payload (varies per endpoint)
	RetExtInfo map[string]interface{} `json:"retExtInfo"` // Optional extra info (e.g. rate limits, error hints)
	Time       int64                  `json:"time"`       // Server timestamp (in milliseconds since epoch)
}

// OrderBookResponse is the result of /v5/market/orderbook.
type OrderBookResponse struct {
	Symbol   string     `json:"s"`
	Bids     [][]string `json:"b"` // [price, size], best first
	Asks     [][]string `json:"a"`
	Ts       int64      `json:"ts"`
	UpdateID int64      `json:"u"`
}

type KlinesResponse struct {
	Category       string     `json:"category"` // e.g., "linear", "spot"
	Symbol         string     `json:"symbol"`
	NextPageCursor string     `json:"nextPageCursor"`
	List           [][]string `json:"list"` // newest first
}

// OrderHistoryResponse is the result of /v5/order/history.
type OrderHistoryResponse struct {
	Category       string        `json:"category"`
	NextPageCursor string        `json:"nextPageCursor"`
	List           []OrderRecord `json:"list"` // newest first
}

type OrderRecord struct {
	OrderID     string `json:"orderId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"` // "Buy" or "Sell"
	OrderType   string `json:"orderType"`
	OrderStatus string `json:"orderStatus"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	MarketUnit  string `json:"marketUnit"` // "quoteCoin" when qty is in quote currency
	CumExecQty  string `json:"cumExecQty"`
	CumExecVal  string `json:"cumExecValue"`
	CreatedTime string `json:"createdTime"` // ms since epoch
}
