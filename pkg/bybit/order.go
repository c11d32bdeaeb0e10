package bybit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"depthwatch/pkg/market"

	"github.com/shopspring/decimal"
)

// ToOrders converts order history records to market orders, oldest first.
func ToOrders(records []OrderRecord) ([]market.Order, error) {
	out := make([]market.Order, 0, len(records))

	// Records arrive newest first.
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]

		price, err := decimalOrZero(r.Price)
		if err != nil {
			return nil, fmt.Errorf("order %s price: %w", r.OrderID, err)
		}
		qty, err := decimalOrZero(r.Qty)
		if err != nil {
			return nil, fmt.Errorf("order %s qty: %w", r.OrderID, err)
		}
		execQty, err := decimalOrZero(r.CumExecQty)
		if err != nil {
			return nil, fmt.Errorf("order %s cumExecQty: %w", r.OrderID, err)
		}
		execVal, err := decimalOrZero(r.CumExecVal)
		if err != nil {
			return nil, fmt.Errorf("order %s cumExecValue: %w", r.OrderID, err)
		}
		created, err := strconv.ParseInt(r.CreatedTime, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("order %s createdTime: %w", r.OrderID, err)
		}

		order := market.Order{
			ID:                 r.OrderID,
			Symbol:             r.Symbol,
			Side:               market.Side(strings.ToUpper(r.Side)),
			Status:             r.OrderStatus,
			Price:              price,
			OrigQty:            qty,
			CumulativeQuoteQty: execVal,
			Time:               time.UnixMilli(created),
		}

		// Market buys placed by quote amount report qty in quote currency.
		if r.MarketUnit == "quoteCoin" {
			order.OrigQuoteQty = qty
			order.OrigQty = execQty
		}

		out = append(out, order)
	}

	return out, nil
}

func decimalOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
