package postgres

import (
	"time"

	"depthwatch/pkg/storage"

	"github.com/shopspring/decimal"
)

// AlertRecord is one notification sent by the poller.
type AlertRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	RunID  string `gorm:"type:varchar(36);not null;index:idx_alert_run_symbol_kind_key,unique"`
	Symbol string `gorm:"type:text;not null;index:idx_alert_symbol;index:idx_alert_run_symbol_kind_key,unique"`
	Kind   string `gorm:"type:varchar(16);not null;index:idx_alert_run_symbol_kind_key,unique"`
	Key    string `gorm:"type:text;not null;index:idx_alert_run_symbol_kind_key,unique"`

	Text string           `gorm:"type:text;not null"`
	Gain *decimal.Decimal `gorm:"type:numeric"`

	AlertedAt  time.Time `gorm:"not null;index:idx_alert_alerted_at"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (AlertRecord) TableName() string {
	return "alert_record"
}

// PnLRecord is one unrealized P&L sample of an open buy.
type PnLRecord struct {
	ID uint `gorm:"primaryKey"`

	RunID  string `gorm:"type:varchar(36);not null"`
	Symbol string `gorm:"type:text;not null;index:idx_pnl_symbol_sampled_at"`

	Buy       decimal.Decimal `gorm:"type:numeric;not null"`
	Sell      decimal.Decimal `gorm:"type:numeric;not null"`
	Change    decimal.Decimal `gorm:"type:numeric;not null"`
	ChangePct decimal.Decimal `gorm:"type:numeric;not null"`

	SampledAt  time.Time `gorm:"not null;index:idx_pnl_symbol_sampled_at"`
	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (PnLRecord) TableName() string {
	return "pnl_record"
}

func ToAlertRecord(a storage.Alert) *AlertRecord {
	return &AlertRecord{
		RunID:     a.RunID,
		Symbol:    a.Symbol,
		Kind:      a.Kind,
		Key:       a.Key,
		Text:      a.Text,
		Gain:      a.Gain,
		AlertedAt: a.Time,
	}
}

func ToPnLRecord(p storage.PnL) *PnLRecord {
	return &PnLRecord{
		RunID:     p.RunID,
		Symbol:    p.Symbol,
		Buy:       p.Buy,
		Sell:      p.Sell,
		Change:    p.Change,
		ChangePct: p.ChangePct,
		SampledAt: p.Time,
	}
}
