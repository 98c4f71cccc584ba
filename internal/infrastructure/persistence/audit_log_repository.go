package persistence

import (
	"context"

	"github.com/atelier/backend/internal/domain/product"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements AuditLogRepository using GORM.
// Append-only: no update or delete operations.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append writes a new audit record
func (r *GormAuditLogRepository) Append(ctx context.Context, log *product.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindBySku returns the lifecycle history of a SKU ordered by time ascending
func (r *GormAuditLogRepository) FindBySku(ctx context.Context, skuID uuid.UUID) ([]product.AuditLog, error) {
	var logs []product.AuditLog
	if err := r.db.WithContext(ctx).
		Where("sku_id = ?", skuID).
		Order("logged_at ASC, created_at ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Ensure GormAuditLogRepository implements AuditLogRepository
var _ product.AuditLogRepository = (*GormAuditLogRepository)(nil)
