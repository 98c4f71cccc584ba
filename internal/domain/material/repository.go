package material

import (
	"context"

	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchRepository defines the persistence interface for purchase batches
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	// FindByIDForUpdate finds a batch and takes a row-level write lock on it.
	// Must be called inside a transaction; it is the anchor that serializes
	// concurrent sufficiency checks against the same batch.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Batch, error)
	// FindByCode finds a batch by its human-readable code
	FindByCode(ctx context.Context, code string) (*Batch, error)
	// FindByIDs finds multiple batches by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Batch, error)
	// FindAll lists batches with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Batch, error)
	// Count counts batches matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// Save creates or updates a batch
	Save(ctx context.Context, batch *Batch) error
	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, batch *Batch) error
}

// UsageEntryRepository defines the persistence interface for the append-only
// usage ledger. There are deliberately no update or delete operations.
type UsageEntryRepository interface {
	// Append writes a new immutable ledger entry
	Append(ctx context.Context, entry *UsageEntry) error
	// FindByBatch returns all entries for a batch ordered by creation time ascending
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]UsageEntry, error)
	// FindByBatchAndSku returns all entries for a (batch, SKU) pair ordered by
	// creation time ascending
	FindByBatchAndSku(ctx context.Context, batchID, skuID uuid.UUID) ([]UsageEntry, error)
	// FindBySku returns all entries referencing a SKU ordered by creation time ascending
	FindBySku(ctx context.Context, skuID uuid.UUID) ([]UsageEntry, error)
	// SumDeltaByBatch returns the net signed movement for a batch
	SumDeltaByBatch(ctx context.Context, batchID uuid.UUID) (decimal.Decimal, error)
}
