// Package poller runs the fetch, classify, notify and render loop.
package poller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"depthwatch/config"
	"depthwatch/internal/monitor/classifier"
	"depthwatch/internal/monitor/notify"
	"depthwatch/internal/monitor/position"
	"depthwatch/internal/monitor/render"
	"depthwatch/metrics"
	"depthwatch/pkg/market"
	"depthwatch/pkg/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recordTimeout = 2 * time.Second

type Options struct {
	Interval     time.Duration
	InitialPause time.Duration
	OrdersEvery  int
	FetchTimeout time.Duration
	DepthLimit   int
	FeeRate      decimal.Decimal
	Trend        config.TrendConfig
	Retention    time.Duration // P&L sample retention, 0 keeps all
	RunID        string
}

func OptionsFromConfig(cfg *config.Config, runID string) Options {
	return Options{
		Interval:     cfg.Poll.Interval,
		InitialPause: cfg.Poll.InitialPause,
		OrdersEvery:  cfg.Poll.OrdersEvery,
		FetchTimeout: cfg.Exchange.Timeout,
		DepthLimit:   cfg.Exchange.DepthLimit,
		FeeRate:      position.DefaultFeeRate,
		Trend:        cfg.Trend,
		Retention:    cfg.Postgres.Retention,
		RunID:        runID,
	}
}

// Pruner is implemented by stores that can drop old P&L samples.
type Pruner interface {
	DeleteOldPnL(ctx context.Context, before time.Time) error
}

// Deps are the side-effect sinks of the loop. Nil fields get a no-op or
// default implementation.
type Deps struct {
	Notifier notify.Notifier
	Store    storage.Store
	Renderer render.Renderer
	Metrics  *metrics.Metrics
	Out      io.Writer // P&L and gain lines
	Logger   *zap.Logger
}

type Poller struct {
	source market.Source
	opts   Options

	notifier notify.Notifier
	store    storage.Store
	renderer render.Renderer
	metrics  *metrics.Metrics
	out      io.Writer
	logger   *zap.Logger

	symbols []string
	states  map[string]*SymbolState

	wait func(ctx context.Context, d time.Duration) error
}

func New(source market.Source, symbols []config.SymbolConfig, opts Options, deps Deps) *Poller {
	if opts.OrdersEvery <= 0 {
		opts.OrdersEvery = 1
	}
	if opts.FeeRate.IsZero() {
		opts.FeeRate = position.DefaultFeeRate
	}

	p := &Poller{
		source:   source,
		opts:     opts,
		notifier: deps.Notifier,
		store:    deps.Store,
		renderer: deps.Renderer,
		metrics:  deps.Metrics,
		out:      deps.Out,
		logger:   deps.Logger,
		states:   make(map[string]*SymbolState, len(symbols)),
		wait:     sleep,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.notifier == nil {
		p.notifier = notify.Log{Logger: p.logger}
	}
	if p.renderer == nil {
		p.renderer = render.Multi{}
	}
	if p.metrics == nil {
		p.metrics = metrics.New()
	}
	if p.out == nil {
		p.out = os.Stdout
	}

	for _, s := range symbols {
		p.symbols = append(p.symbols, s.Name)
		p.states[s.Name] = newSymbolState(s, opts.FeeRate)
	}
	return p
}

// State returns the loop state of symbol. Only safe to call while the loop
// is not running.
func (p *Poller) State(symbol string) (*SymbolState, bool) {
	s, ok := p.states[symbol]
	return s, ok
}

// Run polls until ctx is cancelled or a fetch fails. Tick 0 is followed by
// the initial pause, every later tick by the interval. Output lines of a tick
// are written after its chart so clearing the screen does not erase them.
func (p *Poller) Run(ctx context.Context) error {
	var lines bytes.Buffer
	for index := 0; ; index++ {
		lines.Reset()
		frames, err := p.tick(ctx, index, &lines)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := p.renderer.Clear(); err != nil {
			p.logger.Warn("failed to clear chart", zap.Error(err))
		}
		if err := p.renderer.Draw(frames); err != nil {
			p.logger.Warn("failed to draw chart", zap.Error(err))
		}
		if _, err := lines.WriteTo(p.out); err != nil {
			p.logger.Warn("failed to write output", zap.Error(err))
		}

		pause := p.opts.Interval
		if index == 0 {
			pause = p.opts.InitialPause
		}
		if err := p.wait(ctx, pause); err != nil {
			return nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Tick runs one pass over every symbol and returns the frames to draw. A
// fetch error aborts the tick; an empty book only skips its symbol.
func (p *Poller) Tick(ctx context.Context, index int) ([]render.Frame, error) {
	return p.tick(ctx, index, p.out)
}

func (p *Poller) tick(ctx context.Context, index int, out io.Writer) ([]render.Frame, error) {
	started := time.Now()
	frames := make([]render.Frame, 0, len(p.symbols))

	if index%p.opts.OrdersEvery == 0 {
		p.prune(ctx, started)
	}

	for _, symbol := range p.symbols {
		st := p.states[symbol]

		if index%p.opts.OrdersEvery == 0 {
			if err := p.refreshOrders(ctx, st, out); err != nil {
				return nil, err
			}
		}

		snapshot, err := p.fetchBook(ctx, symbol)
		if err != nil {
			return nil, err
		}

		analysis, err := classifier.Classify(snapshot, st.classifierParams())
		if errors.Is(err, classifier.ErrEmptyBook) {
			p.logger.Warn("empty order book, skipping symbol", zap.String("symbol", symbol), zap.Int("tick", index))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", symbol, err)
		}

		bestBid, bestAsk := analysis.BestBid(), analysis.BestAsk()
		p.metrics.ObserveBook(symbol, bestBid.Price, bestAsk.Price)

		for _, alert := range st.Barriers.Check(analysis) {
			p.notify(ctx, alert.Text())
			p.metrics.BarrierAlert(symbol, string(alert.Side))
			p.recordAlert(ctx, storage.Alert{
				Symbol: symbol,
				Kind:   storage.AlertBarrier,
				Key:    fmt.Sprintf("%s/%d", alert.Key(), index),
				Text:   alert.Text(),
				Time:   snapshot.FetchedAt,
			})
		}

		frame := render.BuildFrame(analysis, st.renderParams())
		frame.Tick = index
		frame.Trend = st.Trend

		if pnl, ok := st.Tracker.Unrealized(bestBid.Price); ok {
			frame.PnL = pnl.String()
			fmt.Fprintln(out, frame.PnL)
			p.metrics.ObservePnL(symbol, pnl.ChangePct.InexactFloat64())
			p.recordPnL(ctx, pnl, snapshot.FetchedAt)
		} else {
			p.metrics.ClearPnL(symbol)
		}

		frames = append(frames, frame)
	}

	p.metrics.TickDone(started)
	return frames, nil
}

func (p *Poller) fetchBook(ctx context.Context, symbol string) (*market.OrderBookSnapshot, error) {
	ctx, cancel := p.fetchContext(ctx)
	defer cancel()

	snapshot, err := p.source.OrderBook(ctx, symbol, p.opts.DepthLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch order book %s: %w", symbol, err)
	}
	return snapshot, nil
}

// refreshOrders fetches the order history, reports new orders and rebuilds
// the trend overlay.
func (p *Poller) refreshOrders(ctx context.Context, st *SymbolState, out io.Writer) error {
	symbol := st.Config.Name

	fetchCtx, cancel := p.fetchContext(ctx)
	orders, err := p.source.Orders(fetchCtx, symbol)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch orders %s: %w", symbol, err)
	}

	for _, ev := range st.Tracker.Observe(orders) {
		p.notify(ctx, ev.Text())
		if line, ok := ev.GainLine(); ok {
			fmt.Fprintln(out, line)
		}
		p.recordAlert(ctx, storage.Alert{
			Symbol: symbol,
			Kind:   alertKind(ev.Kind),
			Key:    ev.Order.ID,
			Text:   ev.Text(),
			Gain:   ev.RealizedGain,
			Time:   ev.Order.Time,
		})
	}

	if !p.opts.Trend.Enabled {
		return nil
	}

	end := time.Now()
	fetchCtx, cancel = p.fetchContext(ctx)
	candles, err := p.source.Candles(fetchCtx, symbol, p.opts.Trend.Interval, end.Add(-p.opts.Trend.Lookback), end)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	st.Trend = render.BuildTrend(candles, orders, p.opts.Trend.SMAPeriod)

	return nil
}

func alertKind(k position.EventKind) string {
	switch k {
	case position.EventNewBuy:
		return storage.AlertNewBuy
	case position.EventNewSell:
		return storage.AlertNewSell
	default:
		return string(k)
	}
}

// prune drops P&L samples older than the retention window.
func (p *Poller) prune(ctx context.Context, now time.Time) {
	pruner, ok := p.store.(Pruner)
	if !ok || p.opts.Retention <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := pruner.DeleteOldPnL(ctx, now.Add(-p.opts.Retention)); err != nil {
		p.logger.Warn("failed to prune pnl samples", zap.Error(err))
	}
}

func (p *Poller) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.opts.FetchTimeout > 0 {
		return context.WithTimeout(ctx, p.opts.FetchTimeout)
	}
	return context.WithCancel(ctx)
}

func (p *Poller) notify(ctx context.Context, text string) {
	if err := p.notifier.Notify(ctx, text); err != nil {
		p.logger.Warn("failed to send notification", zap.String("text", text), zap.Error(err))
	}
}

func (p *Poller) recordAlert(ctx context.Context, a storage.Alert) {
	if p.store == nil {
		return
	}
	a.RunID = p.opts.RunID

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	err := p.store.InsertAlert(ctx, a)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		p.logger.Debug("alert already recorded", zap.String("symbol", a.Symbol), zap.String("key", a.Key))
	case err != nil:
		p.logger.Warn("failed to record alert", zap.String("symbol", a.Symbol), zap.Error(err))
	}
}

func (p *Poller) recordPnL(ctx context.Context, pnl position.PnL, at time.Time) {
	if p.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	err := p.store.InsertPnL(ctx, storage.PnL{
		RunID:     p.opts.RunID,
		Symbol:    pnl.Symbol,
		Buy:       pnl.Buy,
		Sell:      pnl.Sell,
		Change:    pnl.Change,
		ChangePct: pnl.ChangePct,
		Time:      at,
	})
	if err != nil {
		p.logger.Warn("failed to record pnl", zap.String("symbol", pnl.Symbol), zap.Error(err))
	}
}
