package product

import (
	"context"

	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SkuRepository defines the persistence interface for manufactured units
type SkuRepository interface {
	// FindByID finds a SKU by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SKU, error)
	// FindByIDForUpdate finds a SKU and takes a row-level write lock on it.
	// Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SKU, error)
	// FindByCode finds a SKU by its human-readable code
	FindByCode(ctx context.Context, code string) (*SKU, error)
	// FindBySignatureHash finds SKUs built from an identical recipe
	FindBySignatureHash(ctx context.Context, hash string) ([]SKU, error)
	// FindAll lists SKUs with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]SKU, error)
	// Count counts SKUs matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// Save creates or updates a SKU
	Save(ctx context.Context, sku *SKU) error
	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, sku *SKU) error
}

// AuditLogRepository defines the persistence interface for the append-only
// SKU audit trail
type AuditLogRepository interface {
	// Append writes a new audit record
	Append(ctx context.Context, log *AuditLog) error
	// FindBySku returns all audit records for a SKU ordered by time ascending
	FindBySku(ctx context.Context, skuID uuid.UUID) ([]AuditLog, error)
}
