package config

import (
	"context"
	"fmt"
	"time"
)

const (
	ExchangeBinance = "binance"
	ExchangeBybit   = "bybit"
)

type ExchangeConfig struct {
	Name       string        `mapstructure:"name"`     // "binance" or "bybit"
	BaseURL    string        `mapstructure:"base_url"` // empty = exchange default
	Timeout    time.Duration `mapstructure:"timeout"`
	DepthLimit int           `mapstructure:"depth_limit"`
	APIKey     string        `mapstructure:"api_key"`
	APISecret  string        `mapstructure:"api_secret"`
	RecvWindow int           `mapstructure:"recv_window"`
	SSM        SSMConfig     `mapstructure:"ssm"`
}

// SSMConfig names the Parameter Store entries holding API credentials in prod.
type SSMConfig struct {
	APIKeyParam    string `mapstructure:"api_key_param"`
	APISecretParam string `mapstructure:"api_secret_param"`
}

// Credentials returns the API key pair. In prod, configured SSM parameters take
// precedence over the values read from config or environment.
func (c ExchangeConfig) Credentials(ctx context.Context, env string) (key, secret string, err error) {
	key, secret = c.APIKey, c.APISecret
	if env != "prod" {
		return key, secret, nil
	}

	if c.SSM.APIKeyParam != "" {
		if key, err = fetchParameter(ctx, c.SSM.APIKeyParam, true); err != nil {
			return "", "", fmt.Errorf("api key: %w", err)
		}
	}
	if c.SSM.APISecretParam != "" {
		if secret, err = fetchParameter(ctx, c.SSM.APISecretParam, true); err != nil {
			return "", "", fmt.Errorf("api secret: %w", err)
		}
	}
	return key, secret, nil
}
