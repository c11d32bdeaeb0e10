package bybit

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"depthwatch/pkg/market"
)

// ParseKlineList converts Bybit REST API kline rows to candles, oldest first.
// It safely skips invalid rows.
func ParseKlineList(raw [][]string) []market.Candle {
	var out []market.Candle

	for _, row := range raw {
		if len(row) < 6 {
			continue // skip incomplete row
		}

		start, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}

		var vals [5]float64
		valid := true
		for i := range vals {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				valid = false
				break
			}
			vals[i] = v
		}
		if !valid {
			continue
		}

		out = append(out, market.Candle{
			OpenTime: time.UnixMilli(start),
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		})
	}

	// The API lists newest first.
	slices.SortFunc(out, func(a, b market.Candle) int {
		return a.OpenTime.Compare(b.OpenTime)
	})
	return out
}

// ParseLevels converts [price, size] rows. Unlike klines, a malformed level
// fails the whole book.
func ParseLevels(raw [][]string) ([]market.Level, error) {
	out := make([]market.Level, 0, len(raw))
	for _, row := range raw {
		if len(row) < 2 {
			return nil, fmt.Errorf("malformed level: %v", row)
		}
		price, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", row[0], err)
		}
		size, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse size %q: %w", row[1], err)
		}
		out = append(out, market.Level{Price: price, Quantity: size})
	}
	return out, nil
}
