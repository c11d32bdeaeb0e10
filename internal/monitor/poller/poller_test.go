package poller

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"depthwatch/config"
	"depthwatch/internal/monitor/notify"
	"depthwatch/internal/monitor/position"
	"depthwatch/internal/monitor/render"
	"depthwatch/metrics"
	"depthwatch/pkg/market"
	"depthwatch/pkg/storage"
	"depthwatch/pkg/storage/memory"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu sync.Mutex

	books   map[string]*market.OrderBookSnapshot
	orders  map[string][][]market.Order // one history per Orders call, last one repeats
	candles []market.Candle
	err     error

	bookCalls   map[string]int
	orderCalls  map[string]int
	candleCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		books:      make(map[string]*market.OrderBookSnapshot),
		orders:     make(map[string][][]market.Order),
		bookCalls:  make(map[string]int),
		orderCalls: make(map[string]int),
	}
}

func (f *fakeSource) OrderBook(_ context.Context, symbol string, _ int) (*market.OrderBookSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls[symbol]++
	if f.err != nil {
		return nil, f.err
	}
	return f.books[symbol], nil
}

func (f *fakeSource) Orders(_ context.Context, symbol string) ([]market.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.orderCalls[symbol]
	f.orderCalls[symbol]++
	if f.err != nil {
		return nil, f.err
	}
	hist := f.orders[symbol]
	if len(hist) == 0 {
		return nil, nil
	}
	return hist[min(n, len(hist)-1)], nil
}

func (f *fakeSource) Candles(context.Context, string, string, time.Time, time.Time) ([]market.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candleCalls++
	return f.candles, nil
}

type captured struct {
	mu    sync.Mutex
	texts []string
}

func (c *captured) notifier() notify.Notifier {
	return notify.Func(func(_ context.Context, text string) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.texts = append(c.texts, text)
		return nil
	})
}

func symbol(name string, height float64) config.SymbolConfig {
	return config.SymbolConfig{
		Name:            name,
		Height:          height,
		BarWidth:        0.001,
		BarrierFraction: config.DefaultBarrierFraction,
		RoundUnit:       config.DefaultRoundUnit,
		RoundTolerance:  config.DefaultRoundTolerance,
		YScale:          config.YScaleFixed,
	}
}

func book(symbol string, bids, asks []market.Level) *market.OrderBookSnapshot {
	return &market.OrderBookSnapshot{Symbol: symbol, Bids: bids, Asks: asks, FetchedAt: time.Unix(1700000000, 0)}
}

type harness struct {
	source  *fakeSource
	notes   *captured
	store   *memory.Store
	metrics *metrics.Metrics
	out     *bytes.Buffer
}

func newPoller(t *testing.T, opts Options, symbols ...config.SymbolConfig) (*Poller, *harness) {
	t.Helper()
	h := &harness{
		source:  newFakeSource(),
		notes:   &captured{},
		store:   memory.NewStore(),
		metrics: metrics.New(),
		out:     &bytes.Buffer{},
	}
	opts.RunID = "test-run"
	p := New(h.source, symbols, opts, Deps{
		Notifier: h.notes.notifier(),
		Store:    h.store,
		Metrics:  h.metrics,
		Out:      h.out,
	})
	return p, h
}

func TestTickBarrierFiresOnce(t *testing.T) {
	p, h := newPoller(t, Options{}, symbol("WINUSDT", 1e6))
	h.source.books["WINUSDT"] = book("WINUSDT",
		[]market.Level{{Price: 0.99, Quantity: 1}},
		[]market.Level{{Price: 1.00, Quantity: 600000}, {Price: 1.01, Quantity: 1}},
	)

	for tick := 0; tick < 3; tick++ {
		frames, err := p.Tick(context.Background(), tick)
		require.NoError(t, err)
		require.Len(t, frames, 1)
		assert.Equal(t, tick, frames[0].Tick)
	}

	assert.Equal(t, []string{"WINUSDT - ASK BARRIER! 1"}, h.notes.texts)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.BarrierAlerts.WithLabelValues("WINUSDT", "SELL")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.Ticks))
	assert.Equal(t, 0.99, testutil.ToFloat64(h.metrics.BestBid.WithLabelValues("WINUSDT")))

	alerts := h.store.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, storage.AlertBarrier, alerts[0].Kind)
	assert.Equal(t, "test-run", alerts[0].RunID)
}

func TestTickOrdersGating(t *testing.T) {
	p, h := newPoller(t, Options{OrdersEvery: 5}, symbol("WINUSDT", 1e6))
	h.source.books["WINUSDT"] = book("WINUSDT",
		[]market.Level{{Price: 0.99, Quantity: 1}},
		[]market.Level{{Price: 1.00, Quantity: 1}},
	)

	for tick := 0; tick <= 10; tick++ {
		_, err := p.Tick(context.Background(), tick)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, h.source.orderCalls["WINUSDT"])
	assert.Equal(t, 11, h.source.bookCalls["WINUSDT"])
	assert.Zero(t, h.source.candleCalls, "trend disabled")
}

func TestTickBuyThenSell(t *testing.T) {
	p, h := newPoller(t, Options{}, symbol("WINUSDT", 1e9))
	h.source.books["WINUSDT"] = book("WINUSDT",
		[]market.Level{{Price: 1.05, Quantity: 1}},
		[]market.Level{{Price: 1.06, Quantity: 1}},
	)

	buy := market.Order{
		ID: "1", Symbol: "WINUSDT", Side: market.SideBuy,
		OrigQty: decimal.NewFromInt(100), OrigQuoteQty: decimal.NewFromInt(100),
	}
	sell := market.Order{
		ID: "2", Symbol: "WINUSDT", Side: market.SideSell,
		OrigQty: decimal.NewFromInt(100), CumulativeQuoteQty: decimal.NewFromInt(110),
	}
	h.source.orders["WINUSDT"] = [][]market.Order{{buy}, {buy, sell}}

	frames, err := p.Tick(context.Background(), 0)
	require.NoError(t, err)
	line := "buy: 100.00 sell: 104.90 change: 4.90% 4.90$ (buy value: 1.000000 sell value: 1.050000)"
	assert.Equal(t, line+"\n", h.out.String())
	assert.Equal(t, line, frames[0].PnL)
	assert.Empty(t, h.notes.texts, "first observation only seeds")
	require.Len(t, h.store.PnL(), 1)

	h.out.Reset()
	frames, err = p.Tick(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "WINUSDT - last gain: 9.89$\n", h.out.String())
	assert.Empty(t, frames[0].PnL, "sell closes the position")
	assert.Equal(t, []string{"you made a new SELL order"}, h.notes.texts)
	assert.Equal(t, 0, testutil.CollectAndCount(h.metrics.UnrealizedPct))

	alerts := h.store.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, storage.AlertNewSell, alerts[0].Kind)
	require.NotNil(t, alerts[0].Gain)
	assert.Equal(t, "9.89", alerts[0].Gain.StringFixed(2))

	st, ok := p.State("WINUSDT")
	require.True(t, ok)
	_, open := st.Tracker.OpenBuy()
	assert.False(t, open)
}

func TestTickSkipsEmptyBook(t *testing.T) {
	p, h := newPoller(t, Options{}, symbol("AAAUSDT", 1e6), symbol("BBBUSDT", 1e6))
	h.source.books["AAAUSDT"] = book("AAAUSDT", nil, []market.Level{{Price: 1, Quantity: 1}})
	h.source.books["BBBUSDT"] = book("BBBUSDT",
		[]market.Level{{Price: 1, Quantity: 1}},
		[]market.Level{{Price: 2, Quantity: 1}},
	)

	frames, err := p.Tick(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "BBBUSDT", frames[0].Symbol)
}

func TestTickFetchErrorAborts(t *testing.T) {
	p, h := newPoller(t, Options{}, symbol("WINUSDT", 1e6))
	h.source.err = errors.New("503 service unavailable")

	frames, err := p.Tick(context.Background(), 0)
	assert.Nil(t, frames)
	assert.ErrorIs(t, err, h.source.err)
	assert.Contains(t, err.Error(), "fetch orders WINUSDT")
}

func TestTickBuildsTrend(t *testing.T) {
	p, h := newPoller(t, Options{Trend: config.TrendConfig{Enabled: true, Interval: "15m", Lookback: time.Hour, SMAPeriod: 2}},
		symbol("WINUSDT", 1e6))
	h.source.books["WINUSDT"] = book("WINUSDT",
		[]market.Level{{Price: 1, Quantity: 1}},
		[]market.Level{{Price: 2, Quantity: 1}},
	)
	start := time.Unix(1700000000, 0)
	h.source.candles = []market.Candle{
		{OpenTime: start, High: 1},
		{OpenTime: start.Add(15 * time.Minute), High: 2},
		{OpenTime: start.Add(30 * time.Minute), High: 3},
	}

	frames, err := p.Tick(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, frames[0].Trend)
	assert.Len(t, frames[0].Trend.Prices, 3)
	assert.Len(t, frames[0].Trend.SMA, 2)
	assert.Equal(t, 1, h.source.candleCalls)
}

type countingRenderer struct {
	clears, draws int
}

func (r *countingRenderer) Clear() error                     { r.clears++; return nil }
func (r *countingRenderer) Draw(frames []render.Frame) error { r.draws++; return nil }

func TestRunPauses(t *testing.T) {
	src := newFakeSource()
	src.books["WINUSDT"] = book("WINUSDT",
		[]market.Level{{Price: 1, Quantity: 1}},
		[]market.Level{{Price: 2, Quantity: 1}},
	)
	r := &countingRenderer{}
	p := New(src, []config.SymbolConfig{symbol("WINUSDT", 1e6)},
		Options{Interval: time.Second, InitialPause: 3 * time.Second},
		Deps{Renderer: r, Out: &bytes.Buffer{}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pauses []time.Duration
	p.wait = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		if len(pauses) == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []time.Duration{3 * time.Second, time.Second, time.Second}, pauses)
	assert.Equal(t, 3, r.clears)
	assert.Equal(t, 3, r.draws)
}

func TestRunReturnsFetchError(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("timeout")
	p := New(src, []config.SymbolConfig{symbol("WINUSDT", 1e6)}, Options{}, Deps{Out: &bytes.Buffer{}})

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, src.err)
}

type snoopRenderer struct {
	out       *bytes.Buffer
	atClear   []int
	atDrawLen []int
}

func (r *snoopRenderer) Clear() error { r.atClear = append(r.atClear, r.out.Len()); return nil }
func (r *snoopRenderer) Draw([]render.Frame) error {
	r.atDrawLen = append(r.atDrawLen, r.out.Len())
	return nil
}

func TestRunWritesLinesAfterDraw(t *testing.T) {
	src := newFakeSource()
	src.books["WINUSDT"] = book("WINUSDT",
		[]market.Level{{Price: 1.05, Quantity: 1}},
		[]market.Level{{Price: 1.06, Quantity: 1}},
	)
	src.orders["WINUSDT"] = [][]market.Order{{{
		ID: "1", Side: market.SideBuy,
		OrigQty: decimal.NewFromInt(100), OrigQuoteQty: decimal.NewFromInt(100),
	}}}

	out := &bytes.Buffer{}
	r := &snoopRenderer{out: out}
	p := New(src, []config.SymbolConfig{symbol("WINUSDT", 1e9)}, Options{}, Deps{Renderer: r, Out: out})

	ctx, cancel := context.WithCancel(context.Background())
	p.wait = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []int{0}, r.atClear)
	assert.Equal(t, []int{0}, r.atDrawLen)
	assert.Contains(t, out.String(), "buy: 100.00 sell: 104.90")
}

func TestTickPrunesOldPnL(t *testing.T) {
	p, h := newPoller(t, Options{OrdersEvery: 5, Retention: time.Hour}, symbol("WINUSDT", 1e9))
	h.source.books["WINUSDT"] = book("WINUSDT",
		[]market.Level{{Price: 1, Quantity: 1}},
		[]market.Level{{Price: 2, Quantity: 1}},
	)

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, h.store.InsertPnL(ctx, storage.PnL{Symbol: "WINUSDT", Time: now.Add(-2 * time.Hour)}))
	require.NoError(t, h.store.InsertPnL(ctx, storage.PnL{Symbol: "WINUSDT", Time: now}))

	_, err := p.Tick(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, h.store.PnL(), 2, "pruning follows the orders cadence")

	_, err = p.Tick(ctx, 5)
	require.NoError(t, err)
	samples := h.store.PnL()
	require.Len(t, samples, 1)
	assert.Equal(t, now, samples[0].Time)
}

func TestAlertKind(t *testing.T) {
	assert.Equal(t, storage.AlertNewBuy, alertKind(position.EventNewBuy))
	assert.Equal(t, storage.AlertNewSell, alertKind(position.EventNewSell))
}
