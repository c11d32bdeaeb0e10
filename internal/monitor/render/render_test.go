package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"depthwatch/internal/monitor/classifier"
	"depthwatch/pkg/market"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysis(t *testing.T) *classifier.Analysis {
	t.Helper()
	snap := &market.OrderBookSnapshot{
		Symbol: "WINUSDT",
		Bids: []market.Level{
			{Price: 0.000100, Quantity: 1e9},
			{Price: 0.000099, Quantity: 2e9},
		},
		Asks: []market.Level{
			{Price: 0.000101, Quantity: 5e8},
			{Price: 0.000103, Quantity: 1e8},
		},
		FetchedAt: time.Unix(1700000000, 0),
	}
	a, err := classifier.Classify(snap, classifier.Params{Height: 1000, BarrierFraction: 0.2, RoundUnit: 10000, RoundTolerance: 0.01})
	require.NoError(t, err)
	return a
}

func TestBuildFrameFixedScale(t *testing.T) {
	a := analysis(t)

	f := BuildFrame(a, Params{Height: 1000, BarWidth: 3e-7})

	assert.Equal(t, "WINUSDT", f.Symbol)
	assert.Len(t, f.Bids, 2)
	assert.Len(t, f.Asks, 2)
	assert.InDelta(t, 198000.0, f.YMax, 1e-6)
	assert.Zero(t, f.XMin)
	assert.Zero(t, f.XMax)

	require.Len(t, f.Markers, 4)
	assert.Equal(t, 0.000101, f.Markers[0].Price)
	assert.Equal(t, 0.000103, f.Markers[1].Price)
	assert.Equal(t, 0.000100, f.Markers[2].Price)
	assert.Equal(t, 0.000099, f.Markers[3].Price)
}

func TestBuildFrameHeightFloorAndRange(t *testing.T) {
	a := analysis(t)

	f := BuildFrame(a, Params{Height: 1e9, XRange: 3e-5})
	assert.Equal(t, 1e9, f.YMax)
	assert.InDelta(t, 0.0001005-3e-5, f.XMin, 1e-12)
	assert.InDelta(t, 0.0001005+3e-5, f.XMax, 1e-12)

	auto := BuildFrame(a, Params{Height: 1e9, AutoY: true})
	assert.InDelta(t, 198000.0, auto.YMax, 1e-6)
}

func TestBuildFrameCarriesFlags(t *testing.T) {
	f := BuildFrame(analysis(t), Params{Height: 1000})

	for _, b := range append(f.Bids, f.Asks...) {
		assert.True(t, b.Barrier, "price %v", b.Price)
		assert.True(t, b.Private, "price %v", b.Price)
	}
}

func candles(highs ...float64) []market.Candle {
	start := time.Unix(1700000000, 0)
	out := make([]market.Candle, len(highs))
	for i, h := range highs {
		out[i] = market.Candle{OpenTime: start.Add(time.Duration(i) * time.Hour), High: h}
	}
	return out
}

func order(side market.Side, at time.Time) market.Order {
	return market.Order{Side: side, Time: at, Price: decimal.NewFromInt(1)}
}

func TestBuildTrend(t *testing.T) {
	cs := candles(10, 20, 30, 20, 10)
	start := cs[0].OpenTime

	orders := []market.Order{
		order(market.SideBuy, start.Add(-time.Hour)),       // before the window
		order(market.SideBuy, start.Add(30*time.Minute)),   // 15
		order(market.SideSell, start.Add(150*time.Minute)), // 25
		order(market.SideBuy, start.Add(3*time.Hour)),      // 20
		order(market.SideSell, start.Add(200*time.Minute)), // between 20 and 10
		order(market.SideSell, start.Add(10*time.Hour)),    // no open buy, clamped
	}

	tr := BuildTrend(cs, orders, 3)

	require.Len(t, tr.Prices, 5)
	require.Len(t, tr.SMA, 3)
	assert.InDelta(t, 20.0, tr.SMA[0].Price, 1e-9)
	assert.InDelta(t, 70.0/3, tr.SMA[1].Price, 1e-9)
	assert.Equal(t, cs[2].OpenTime, tr.SMA[0].Time)

	require.Len(t, tr.Buys, 2)
	assert.InDelta(t, 15.0, tr.Buys[0].Price, 1e-9)
	require.Len(t, tr.Sells, 3)
	assert.InDelta(t, 25.0, tr.Sells[0].Price, 1e-9)
	assert.InDelta(t, 10.0, tr.Sells[2].Price, 1e-9)

	require.Len(t, tr.Segments, 2)
	first := tr.Segments[0]
	assert.True(t, first.Rising)
	// buy point, candles at 1h and 2h, sell point
	assert.Len(t, first.Points, 4)

	second := tr.Segments[1]
	assert.False(t, second.Rising)
	assert.Len(t, second.Points, 2)
}

func TestBuildTrendShortHistory(t *testing.T) {
	tr := BuildTrend(candles(1, 2), nil, 20)
	assert.Len(t, tr.Prices, 2)
	assert.Empty(t, tr.SMA)

	empty := BuildTrend(nil, []market.Order{order(market.SideBuy, time.Now())}, 20)
	assert.Empty(t, empty.Prices)
	assert.Empty(t, empty.Buys)
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, 1, 10)

	require.NoError(t, term.Clear())
	assert.Equal(t, ansiClear, buf.String())

	buf.Reset()
	f := BuildFrame(analysis(t), Params{Height: 1000})
	f.Trend = BuildTrend(candles(1, 2, 3), nil, 2)
	require.NoError(t, term.Draw([]Frame{f}))

	out := buf.String()
	assert.Contains(t, out, "== WINUSDT ==")
	assert.Contains(t, out, "0.000101")
	assert.Contains(t, out, "0.0001 ")
	assert.NotContains(t, out, "0.000103", "rows beyond the limit are not drawn")
	assert.Contains(t, out, "trend: high 3 sma 2.5 buys 0 sells 0")
	assert.True(t, strings.Index(out, "0.000101") < strings.Index(out, "0.0001 "), "asks above bids")
}

type fakeRenderer struct {
	cleared, drawn int
	err            error
}

func (f *fakeRenderer) Clear() error              { f.cleared++; return f.err }
func (f *fakeRenderer) Draw(frames []Frame) error { f.drawn += len(frames); return f.err }

func TestMulti(t *testing.T) {
	a, b := &fakeRenderer{}, &fakeRenderer{}
	m := Multi{a, b}

	require.NoError(t, m.Clear())
	require.NoError(t, m.Draw([]Frame{{}, {}}))
	assert.Equal(t, 1, b.cleared)
	assert.Equal(t, 2, b.drawn)

	a.err = errors.New("closed")
	assert.Error(t, m.Draw(nil))
	assert.Equal(t, 2, b.drawn)
}
