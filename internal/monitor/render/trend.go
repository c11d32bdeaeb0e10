package render

import (
	"sort"
	"time"

	"depthwatch/pkg/market"

	"github.com/markcheno/go-talib"
)

type Point struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// Segment is the price path of one buy→sell round trip.
type Segment struct {
	Points []Point `json:"points"`
	Rising bool    `json:"rising"` // drawn green when true, red otherwise
}

// Trend is the price-history overlay: candle highs, their moving average and
// the account's trades placed on that curve.
type Trend struct {
	Prices   []Point   `json:"prices"`
	SMA      []Point   `json:"sma,omitempty"`
	Buys     []Point   `json:"buys"`
	Sells    []Point   `json:"sells"`
	Segments []Segment `json:"segments"`
}

// BuildTrend places orders (oldest first) on the candle high curve. Orders
// older than the first candle are ignored.
func BuildTrend(candles []market.Candle, orders []market.Order, smaPeriod int) *Trend {
	tr := &Trend{}
	if len(candles) == 0 {
		return tr
	}

	highs := make([]float64, len(candles))
	tr.Prices = make([]Point, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		tr.Prices[i] = Point{Time: c.OpenTime, Price: c.High}
	}

	if smaPeriod > 1 && len(highs) >= smaPeriod {
		sma := talib.Sma(highs, smaPeriod)
		for i := smaPeriod - 1; i < len(sma); i++ {
			tr.SMA = append(tr.SMA, Point{Time: candles[i].OpenTime, Price: sma[i]})
		}
	}

	first := candles[0].OpenTime
	var openBuy *Point
	for _, o := range orders {
		if o.Time.Before(first) {
			continue
		}
		p := Point{Time: o.Time, Price: interpolate(tr.Prices, o.Time)}

		switch o.Side {
		case market.SideBuy:
			tr.Buys = append(tr.Buys, p)
			openBuy = &p
		case market.SideSell:
			tr.Sells = append(tr.Sells, p)
			if openBuy != nil {
				tr.Segments = append(tr.Segments, segment(tr.Prices, *openBuy, p))
				openBuy = nil
			}
		}
	}

	return tr
}

// segment joins the buy and sell points through the candles between them.
func segment(prices []Point, buy, sell Point) Segment {
	start := sort.Search(len(prices), func(i int) bool { return prices[i].Time.After(buy.Time) })
	end := sort.Search(len(prices), func(i int) bool { return prices[i].Time.After(sell.Time) })

	points := make([]Point, 0, end-start+2)
	points = append(points, buy)
	points = append(points, prices[start:end]...)
	points = append(points, sell)

	return Segment{Points: points, Rising: sell.Price > buy.Price}
}

// interpolate returns the price at t on the piecewise-linear curve, clamped
// to the first and last points outside the curve's time range.
func interpolate(curve []Point, t time.Time) float64 {
	if len(curve) == 0 {
		return 0
	}
	if !t.After(curve[0].Time) {
		return curve[0].Price
	}
	last := curve[len(curve)-1]
	if !t.Before(last.Time) {
		return last.Price
	}

	i := sort.Search(len(curve), func(i int) bool { return curve[i].Time.After(t) })
	a, b := curve[i-1], curve[i]
	span := float64(b.Time.Sub(a.Time))
	frac := float64(t.Sub(a.Time)) / span
	return a.Price + frac*(b.Price-a.Price)
}
