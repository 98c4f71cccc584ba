package persistence

import (
	"context"

	"github.com/atelier/backend/internal/domain/material"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormUsageEntryRepository implements UsageEntryRepository using GORM.
// The ledger is append-only: this repository deliberately exposes no update
// or delete operations.
type GormUsageEntryRepository struct {
	db *gorm.DB
}

// NewGormUsageEntryRepository creates a new GormUsageEntryRepository
func NewGormUsageEntryRepository(db *gorm.DB) *GormUsageEntryRepository {
	return &GormUsageEntryRepository{db: db}
}

// Append writes a new immutable ledger entry
func (r *GormUsageEntryRepository) Append(ctx context.Context, entry *material.UsageEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByBatch returns all entries for a batch ordered by creation time ascending
func (r *GormUsageEntryRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]material.UsageEntry, error) {
	var entries []material.UsageEntry
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("entry_date ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByBatchAndSku returns all entries for a (batch, SKU) pair ordered by
// creation time ascending
func (r *GormUsageEntryRepository) FindByBatchAndSku(ctx context.Context, batchID, skuID uuid.UUID) ([]material.UsageEntry, error) {
	var entries []material.UsageEntry
	if err := r.db.WithContext(ctx).
		Where("batch_id = ? AND sku_id = ?", batchID, skuID).
		Order("entry_date ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindBySku returns all entries referencing a SKU ordered by creation time ascending
func (r *GormUsageEntryRepository) FindBySku(ctx context.Context, skuID uuid.UUID) ([]material.UsageEntry, error) {
	var entries []material.UsageEntry
	if err := r.db.WithContext(ctx).
		Where("sku_id = ?", skuID).
		Order("entry_date ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumDeltaByBatch returns the net signed movement for a batch
func (r *GormUsageEntryRepository) SumDeltaByBatch(ctx context.Context, batchID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&material.UsageEntry{}).
		Where("batch_id = ?", batchID).
		Select("SUM(quantity_delta)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Ensure GormUsageEntryRepository implements UsageEntryRepository
var _ material.UsageEntryRepository = (*GormUsageEntryRepository)(nil)
