package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"catalogsync/internal/models"
)

const (
	DefaultJournalLimit = 50
	maxJournalLimit     = 500
)

// Journal stores one row per applied publish/hide decision.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *Database) *Journal {
	return &Journal{db: db.DB}
}

func (j *Journal) Record(ctx context.Context, rec *models.Reconciliation) error {
	if err := j.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to record reconciliation: %w", err)
	}
	return nil
}

// Recent returns the newest rows first. Non-positive limits use the default.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.Reconciliation, error) {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	if limit > maxJournalLimit {
		limit = maxJournalLimit
	}

	var out []models.Reconciliation
	err := j.db.WithContext(ctx).
		Order("applied_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations: %w", err)
	}
	return out, nil
}

// ForProduct returns the rows of one product, newest first.
func (j *Journal) ForProduct(ctx context.Context, productID string, limit int) ([]models.Reconciliation, error) {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}

	var out []models.Reconciliation
	err := j.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("applied_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations: %w", err)
	}
	return out, nil
}
