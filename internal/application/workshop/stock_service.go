package workshop

import (
	"context"
	"errors"

	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockService registers purchase batches and answers stock queries. Reads
// derive the remaining quantity from the ledger on every call; nothing here
// trusts a cached stock column.
type StockService struct {
	batchRepo      material.BatchRepository
	ledgerRepo     material.UsageEntryRepository
	eventPublisher shared.EventPublisher
}

// NewStockService creates a new StockService
func NewStockService(batchRepo material.BatchRepository, ledgerRepo material.UsageEntryRepository) *StockService {
	return &StockService{
		batchRepo:  batchRepo,
		ledgerRepo: ledgerRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RegisterBatch records a new raw-material purchase
func (s *StockService) RegisterBatch(ctx context.Context, req RegisterBatchRequest) (*BatchResponse, error) {
	existing, err := s.batchRepo.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_CODE", "A batch with this code already exists")
	}

	batch, err := material.NewBatch(req.Code, req.Name, req.Kind,
		req.PieceCount, req.StringCount, req.BeadsPerString, req.TotalCost)
	if err != nil {
		return nil, err
	}
	if req.AlertThreshold != nil {
		if err := batch.SetAlertThreshold(*req.AlertThreshold); err != nil {
			return nil, err
		}
	}

	if err := s.batchRepo.Save(ctx, batch); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, batch.GetDomainEvents()...)
	}
	batch.ClearDomainEvents()

	resp := ToBatchResponse(batch)
	return &resp, nil
}

// GetBatch returns a batch by ID
func (s *StockService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// GetBatchByCode returns a batch by its human-readable code
func (s *StockService) GetBatchByCode(ctx context.Context, code string) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch)
	return &resp, nil
}

// ListBatches lists batches with pagination
func (s *StockService) ListBatches(ctx context.Context, filter shared.Filter) (*shared.Paginated[BatchResponse], error) {
	batches, err := s.batchRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.batchRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]BatchResponse, len(batches))
	for i := range batches {
		items[i] = ToBatchResponse(&batches[i])
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetStockLevel computes the ledger-derived stock position of a batch
func (s *StockService) GetStockLevel(ctx context.Context, id uuid.UUID) (*StockLevelResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.FindByBatch(ctx, batch.ID)
	if err != nil {
		return nil, err
	}

	level := material.Level(batch, entries)
	return &StockLevelResponse{
		BatchID:    batch.ID,
		Code:       batch.Code,
		Remaining:  level.Remaining,
		IsLowStock: level.IsLowStock,
		Status:     level.Status,
	}, nil
}

// ListLowStock returns the stock positions of batches at or below their alert
// threshold. Only batches that carry a threshold can appear here.
func (s *StockService) ListLowStock(ctx context.Context, filter shared.Filter) ([]StockLevelResponse, error) {
	batches, err := s.batchRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	low := make([]StockLevelResponse, 0)
	for i := range batches {
		b := &batches[i]
		if b.AlertThreshold == nil {
			continue
		}
		entries, err := s.ledgerRepo.FindByBatch(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		level := material.Level(b, entries)
		if !level.IsLowStock {
			continue
		}
		low = append(low, StockLevelResponse{
			BatchID:    b.ID,
			Code:       b.Code,
			Remaining:  level.Remaining,
			IsLowStock: true,
			Status:     level.Status,
		})
	}
	return low, nil
}

// GetUsageHistory returns the full append-only ledger of a batch, oldest first
func (s *StockService) GetUsageHistory(ctx context.Context, batchID uuid.UUID) ([]material.UsageEntry, error) {
	if _, err := s.batchRepo.FindByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.ledgerRepo.FindByBatch(ctx, batchID)
}
