package postgres

import (
	"context"
	"fmt"
	"time"

	"depthwatch/pkg/storage"

	"gorm.io/gorm/clause"
)

func (p *PostgresClient) InsertAlert(ctx context.Context, a storage.Alert) error {
	record := ToAlertRecord(a)
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "run_id"},
			{Name: "symbol"},
			{Name: "kind"},
			{Name: "key"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: symbol=%s kind=%s key=%s", storage.ErrDuplicate, a.Symbol, a.Kind, a.Key)
	}

	return nil
}

// ListAlerts returns the newest alerts for symbol, newest first.
func (p *PostgresClient) ListAlerts(ctx context.Context, symbol string, limit int) ([]AlertRecord, error) {
	var alerts []AlertRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("alerted_at DESC").
		Limit(limit).
		Find(&alerts).Error

	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (p *PostgresClient) InsertPnL(ctx context.Context, s storage.PnL) error {
	return p.DB.WithContext(ctx).Create(ToPnLRecord(s)).Error
}

func (p *PostgresClient) LatestPnL(ctx context.Context, symbol string) (*PnLRecord, error) {
	var rec PnLRecord
	err := p.DB.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("sampled_at DESC").
		First(&rec).Error

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *PostgresClient) DeleteOldPnL(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("sampled_at < ?", before).
		Delete(&PnLRecord{}).Error
}
