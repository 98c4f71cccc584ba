package persistence

import (
	"context"

	"github.com/atelier/backend/internal/domain/finance"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFinancialRecordRepository implements RecordRepository using GORM
type GormFinancialRecordRepository struct {
	db *gorm.DB
}

// NewGormFinancialRecordRepository creates a new GormFinancialRecordRepository
func NewGormFinancialRecordRepository(db *gorm.DB) *GormFinancialRecordRepository {
	return &GormFinancialRecordRepository{db: db}
}

// Append writes a new financial record
func (r *GormFinancialRecordRepository) Append(ctx context.Context, record *finance.Record) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindBySource returns records produced by a given source document
func (r *GormFinancialRecordRepository) FindBySource(ctx context.Context, sourceType finance.SourceType, sourceID uuid.UUID) ([]finance.Record, error) {
	var records []finance.Record
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("recorded_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Ensure GormFinancialRecordRepository implements RecordRepository
var _ finance.RecordRepository = (*GormFinancialRecordRepository)(nil)
