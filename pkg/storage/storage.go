// Package storage defines the records the poller persists and the store
// contract shared by the memory and postgres backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDuplicate is returned when an alert with the same run, symbol, kind and
// key was already stored.
var ErrDuplicate = errors.New("duplicate alert skipped")

const (
	AlertBarrier = "barrier"
	AlertNewBuy  = "new_buy"
	AlertNewSell = "new_sell"
)

type Alert struct {
	RunID  string
	Symbol string
	Kind   string
	Key    string
	Text   string
	Gain   *decimal.Decimal // realized gain, sells only
	Time   time.Time
}

type PnL struct {
	RunID     string
	Symbol    string
	Buy       decimal.Decimal
	Sell      decimal.Decimal
	Change    decimal.Decimal
	ChangePct decimal.Decimal
	Time      time.Time
}

type Store interface {
	InsertAlert(ctx context.Context, a Alert) error
	InsertPnL(ctx context.Context, p PnL) error
}
