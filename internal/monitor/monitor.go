// Package monitor wires the exchange source, notifiers, recorder and
// renderers into the polling loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"depthwatch/config"
	"depthwatch/internal/monitor/chartfeed"
	"depthwatch/internal/monitor/notify"
	"depthwatch/internal/monitor/poller"
	"depthwatch/internal/monitor/render"
	"depthwatch/metrics"
	"depthwatch/pkg/binance"
	"depthwatch/pkg/bybit"
	"depthwatch/pkg/market"
	"depthwatch/pkg/storage"
	"depthwatch/pkg/storage/memory"
	"depthwatch/pkg/storage/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrUnknownExchange is returned for an exchange name without a client.
	ErrUnknownExchange = errors.New("unknown exchange")
	ErrDBUnhealthy     = errors.New("database is not reachable")
)

const dbCheckTimeout = 3 * time.Second

// Start runs the monitor until ctx is cancelled or a fetch fails.
func Start(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	source, err := NewSource(ctx, cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	renderers := render.Multi{}

	if cfg.Render.Terminal.Enabled {
		renderers = append(renderers, render.NewTerminal(os.Stdout, cfg.Render.Terminal.DepthRows, cfg.Render.Terminal.Width))
	}

	if cfg.Render.Web.Enabled {
		hub := chartfeed.NewHub(cfg.Render.Web.Replay, logger)
		go hub.Run(ctx)
		go func() {
			router := chartfeed.NewRouter(hub, m.Handler(), logger)
			if err := chartfeed.Serve(ctx, cfg.Render.Web.Addr, router, logger); err != nil {
				logger.Error("chart server stopped", zap.Error(err))
			}
		}()
		renderers = append(renderers, hub)
	}

	p := poller.New(source, cfg.Symbols, poller.OptionsFromConfig(cfg, runID), poller.Deps{
		Notifier: notifier,
		Store:    store,
		Renderer: renderers,
		Metrics:  m,
		Out:      os.Stdout,
		Logger:   logger,
	})

	logger.Info("monitor started",
		zap.String("exchange", cfg.Exchange.Name),
		zap.Strings("symbols", cfg.SymbolNames()),
		zap.Duration("interval", cfg.Poll.Interval),
	)

	return p.Run(ctx)
}

// NewSource builds the exchange client named in the config.
func NewSource(ctx context.Context, cfg *config.Config) (market.Source, error) {
	key, secret, err := cfg.Exchange.Credentials(ctx, cfg.Log.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange credentials: %w", err)
	}

	switch cfg.Exchange.Name {
	case config.ExchangeBinance:
		return binance.NewClient(key, secret, cfg.Exchange.BaseURL), nil
	case config.ExchangeBybit:
		return bybit.NewRESTClient(cfg.Exchange.BaseURL, cfg.Exchange.Timeout).
			WithCredentials(key, secret, cfg.Exchange.RecvWindow), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExchange, cfg.Exchange.Name)
	}
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	if !cfg.Postgres.Enabled {
		return memory.NewStore(), func() {}, nil
	}

	client, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	closeStore := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close DB", zap.Error(err))
		}
	}

	if err := preparePostgres(ctx, client, cfg.SymbolNames(), logger); err != nil {
		closeStore()
		return nil, nil, err
	}

	return client, closeStore, nil
}

// preparePostgres checks the connection and logs what earlier runs recorded
// for each symbol.
func preparePostgres(ctx context.Context, client *postgres.PostgresClient, symbols []string, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, dbCheckTimeout)
	defer cancel()

	if !client.IsHealthy(ctx) {
		return ErrDBUnhealthy
	}

	for _, symbol := range symbols {
		alerts, err := client.ListAlerts(ctx, symbol, 1)
		if err != nil {
			return fmt.Errorf("failed to read alerts for %s: %w", symbol, err)
		}
		if len(alerts) > 0 {
			logger.Info("last recorded alert",
				zap.String("symbol", symbol),
				zap.String("text", alerts[0].Text),
				zap.Time("at", alerts[0].AlertedAt),
			)
		}

		pnl, err := client.LatestPnL(ctx, symbol)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read pnl for %s: %w", symbol, err)
		}
		logger.Info("last recorded pnl",
			zap.String("symbol", symbol),
			zap.String("change_pct", pnl.ChangePct.StringFixed(2)),
			zap.Time("at", pnl.SampledAt),
		)
	}

	return nil
}

func newNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	notifiers := notify.Multi{notify.Log{Logger: logger}}

	if cfg.Notify.Desktop {
		notifiers = append(notifiers, notify.NewDesktop(cfg.Notify.AppName))
	}

	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}

	return notifiers, nil
}
