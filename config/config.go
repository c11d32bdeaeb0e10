package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrNoSymbols is returned when the configuration tracks no symbol.
var ErrNoSymbols = errors.New("no symbols configured")

type Config struct {
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Poll     PollConfig     `mapstructure:"poll"`
	Trend    TrendConfig    `mapstructure:"trend"`
	Render   RenderConfig   `mapstructure:"render"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Symbols  []SymbolConfig `mapstructure:"symbols"`
}

type PollConfig struct {
	Interval     time.Duration `mapstructure:"interval"`      // pause between ticks
	InitialPause time.Duration `mapstructure:"initial_pause"` // pause after tick 0
	OrdersEvery  int           `mapstructure:"orders_every"`  // fetch order history every N ticks
}

type TrendConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  string        `mapstructure:"interval"` // kline interval, e.g. "15m"
	Lookback  time.Duration `mapstructure:"lookback"`
	SMAPeriod int           `mapstructure:"sma_period"`
}

type RenderConfig struct {
	Terminal TerminalConfig `mapstructure:"terminal"`
	Web      WebConfig      `mapstructure:"web"`
}

type TerminalConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	DepthRows int  `mapstructure:"depth_rows"`
	Width     int  `mapstructure:"width"`
}

type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Replay  int    `mapstructure:"replay"` // frames kept for late subscribers
}

type NotifyConfig struct {
	Desktop  bool           `mapstructure:"desktop"`
	AppName  string         `mapstructure:"app_name"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	ChatID  int64  `mapstructure:"chat_id"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// SymbolConfig holds the chart and alert parameters of one tracked symbol.
type SymbolConfig struct {
	Name            string  `mapstructure:"name"`
	Height          float64 `mapstructure:"height"`           // reference notional scale
	BarWidth        float64 `mapstructure:"bar_width"`        // bar width in price units
	XRange          float64 `mapstructure:"x_range"`          // half window around the mid price, 0 = whole book
	BarrierFraction float64 `mapstructure:"barrier_fraction"` // barrier threshold = height × fraction
	RoundUnit       float64 `mapstructure:"round_unit"`       // quantity unit of a "private" order
	RoundTolerance  float64 `mapstructure:"round_tolerance"`  // mantissa tolerance of a "private" notional
	YScale          string  `mapstructure:"y_scale"`          // "fixed" or "auto"
}

const (
	DefaultBarrierFraction = 0.2
	DefaultRoundUnit       = 10000
	DefaultRoundTolerance  = 0.01

	YScaleFixed = "fixed"
	YScaleAuto  = "auto"
)

// Load loads application configuration using Viper.
// It reads config.yaml from configPath and overrides with environment variables.
// A .env file in the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		ex, _ := os.Executable()
		if strings.Contains(ex, "go-build") {
			pwd, _ := os.Getwd()
			v.AddConfigPath(filepath.Join(pwd, "../../config"))
		} else {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
	}

	setDefaults(v)

	// Support environment variables with dot notation (e.g., EXCHANGE_API_KEY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("exchange.name", "binance")
	v.SetDefault("exchange.base_url", "")
	v.SetDefault("exchange.timeout", 10*time.Second)
	v.SetDefault("exchange.depth_limit", 100)
	v.SetDefault("exchange.api_key", "")
	v.SetDefault("exchange.api_secret", "")
	v.SetDefault("exchange.recv_window", 5000)
	v.SetDefault("exchange.ssm.api_key_param", "")
	v.SetDefault("exchange.ssm.api_secret_param", "")

	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("poll.initial_pause", time.Second)
	v.SetDefault("poll.orders_every", 5)

	v.SetDefault("trend.enabled", false)
	v.SetDefault("trend.interval", "15m")
	v.SetDefault("trend.lookback", 48*time.Hour)
	v.SetDefault("trend.sma_period", 20)

	v.SetDefault("render.terminal.enabled", true)
	v.SetDefault("render.terminal.depth_rows", 10)
	v.SetDefault("render.terminal.width", 50)
	v.SetDefault("render.web.enabled", false)
	v.SetDefault("render.web.addr", ":8080")
	v.SetDefault("render.web.replay", 20)

	v.SetDefault("notify.desktop", true)
	v.SetDefault("notify.app_name", "depthwatch")
	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.retention", 7*24*time.Hour)
}

// normalize validates the loaded config and fills per-symbol defaults.
func (c *Config) normalize() error {
	if len(c.Symbols) == 0 {
		return ErrNoSymbols
	}
	if c.Poll.OrdersEvery <= 0 {
		c.Poll.OrdersEvery = 1
	}

	seen := make(map[string]bool, len(c.Symbols))
	for i := range c.Symbols {
		s := &c.Symbols[i]
		s.Name = strings.ToUpper(strings.TrimSpace(s.Name))
		if s.Name == "" {
			return fmt.Errorf("symbol #%d: missing name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("symbol %s: configured twice", s.Name)
		}
		seen[s.Name] = true

		if s.Height <= 0 {
			return fmt.Errorf("symbol %s: height must be positive", s.Name)
		}
		if s.BarrierFraction <= 0 {
			s.BarrierFraction = DefaultBarrierFraction
		}
		if s.RoundUnit <= 0 {
			s.RoundUnit = DefaultRoundUnit
		}
		if s.RoundTolerance <= 0 {
			s.RoundTolerance = DefaultRoundTolerance
		}
		switch s.YScale {
		case "":
			s.YScale = YScaleFixed
		case YScaleFixed, YScaleAuto:
		default:
			return fmt.Errorf("symbol %s: unknown y_scale %q", s.Name, s.YScale)
		}
	}
	return nil
}

// SymbolNames returns the tracked symbols in configuration order.
func (c *Config) SymbolNames() []string {
	names := make([]string, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		names = append(names, s.Name)
	}
	return names
}
