package workshop

import (
	"context"

	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SkuQueryService answers read-only questions about SKUs: the catalogue, the
// lifecycle audit trail and the material trace back into the usage ledger.
type SkuQueryService struct {
	skuRepo    product.SkuRepository
	auditRepo  product.AuditLogRepository
	ledgerRepo material.UsageEntryRepository
}

// NewSkuQueryService creates a new SkuQueryService
func NewSkuQueryService(skuRepo product.SkuRepository, auditRepo product.AuditLogRepository, ledgerRepo material.UsageEntryRepository) *SkuQueryService {
	return &SkuQueryService{
		skuRepo:    skuRepo,
		auditRepo:  auditRepo,
		ledgerRepo: ledgerRepo,
	}
}

// GetSku returns a SKU by ID
func (s *SkuQueryService) GetSku(ctx context.Context, id uuid.UUID) (*SkuSnapshot, error) {
	sku, err := s.skuRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snapshot := ToSkuSnapshot(sku)
	return &snapshot, nil
}

// GetSkuByCode returns a SKU by its code
func (s *SkuQueryService) GetSkuByCode(ctx context.Context, code string) (*SkuSnapshot, error) {
	sku, err := s.skuRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	snapshot := ToSkuSnapshot(sku)
	return &snapshot, nil
}

// GetRecipe returns the normalized material signature of a SKU
func (s *SkuQueryService) GetRecipe(ctx context.Context, id uuid.UUID) (product.Signature, error) {
	sku, err := s.skuRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sku.Signature, nil
}

// FindBySignature returns SKUs sharing an exact recipe, identified by the
// deterministic signature hash
func (s *SkuQueryService) FindBySignature(ctx context.Context, signature product.Signature) ([]SkuSnapshot, error) {
	skus, err := s.skuRepo.FindBySignatureHash(ctx, signature.Hash())
	if err != nil {
		return nil, err
	}
	snapshots := make([]SkuSnapshot, len(skus))
	for i := range skus {
		snapshots[i] = ToSkuSnapshot(&skus[i])
	}
	return snapshots, nil
}

// ListSkus lists SKUs with pagination
func (s *SkuQueryService) ListSkus(ctx context.Context, filter shared.Filter) (*shared.Paginated[SkuSnapshot], error) {
	skus, err := s.skuRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.skuRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]SkuSnapshot, len(skus))
	for i := range skus {
		items[i] = ToSkuSnapshot(&skus[i])
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetAuditTrail returns the append-only lifecycle history of a SKU
func (s *SkuQueryService) GetAuditTrail(ctx context.Context, skuID uuid.UUID) ([]product.AuditLog, error) {
	if _, err := s.skuRepo.FindByID(ctx, skuID); err != nil {
		return nil, err
	}
	return s.auditRepo.FindBySku(ctx, skuID)
}

// GetMaterialTrace returns every usage ledger entry referencing a SKU, oldest
// first, tracing the manufactured units back to their source batches
func (s *SkuQueryService) GetMaterialTrace(ctx context.Context, skuID uuid.UUID) ([]material.UsageEntry, error) {
	if _, err := s.skuRepo.FindByID(ctx, skuID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.FindBySku(ctx, skuID)
}
