package workshop

import (
	"context"
	"fmt"
	"strings"

	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompositionService builds manufactured SKUs out of raw-material batches.
// Creation is all-or-nothing: the sufficiency checks, ledger writes, batch
// status flips and the SKU insert share one transaction.
type CompositionService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
}

// NewCompositionService creates a new CompositionService
func NewCompositionService(scope TransactionScope) *CompositionService {
	return &CompositionService{scope: scope}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CompositionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateSku manufactures a new SKU consuming the requested batches.
// Material quantities are per SKU unit; the total draw on each batch is
// quantity_per_unit x total_units, checked against the ledger-derived
// remaining quantity inside the transaction.
func (s *CompositionService) CreateSku(ctx context.Context, req CreateSkuRequest) (*SkuSnapshot, error) {
	if err := validateComposition(req); err != nil {
		return nil, err
	}

	var (
		snapshot SkuSnapshot
		events   []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		type draw struct {
			batch     *material.Batch
			perUnit   decimal.Decimal
			total     decimal.Decimal
			remaining decimal.Decimal
		}

		units := decimal.NewFromInt(int64(req.TotalUnits))
		draws := make([]draw, 0, len(req.Materials))
		shortfalls := make([]material.Shortfall, 0)

		for _, input := range req.Materials {
			batch, err := repos.Batches().FindByIDForUpdate(ctx, input.BatchID)
			if err != nil {
				return err
			}

			entries, err := repos.Ledger().FindByBatch(ctx, batch.ID)
			if err != nil {
				return err
			}

			total := input.QuantityPerUnit.Mul(units)
			remaining := material.Remaining(batch, entries)
			if remaining.LessThan(total) {
				shortfalls = append(shortfalls, material.Shortfall{
					BatchID:   batch.ID,
					BatchCode: batch.Code,
					Required:  total,
					Available: remaining,
				})
				continue
			}

			draws = append(draws, draw{
				batch:     batch,
				perUnit:   input.QuantityPerUnit,
				total:     total,
				remaining: remaining,
			})
		}

		if len(shortfalls) > 0 {
			return material.NewInsufficientStockError(shortfalls...)
		}

		signature := make(product.Signature, 0, len(draws))
		materialCost := decimal.Zero
		for _, d := range draws {
			signature = append(signature, product.SignatureLine{
				BatchID:         d.batch.ID,
				PerUnitQuantity: d.perUnit,
			})
			materialCost = materialCost.Add(d.batch.UnitCost.Mul(d.total).Round(4))
		}

		code := req.Code
		if code == "" {
			code = generateSkuCode()
		}

		sku, err := product.NewSKU(code, req.Name, signature, req.TotalUnits,
			materialCost, req.LaborCost, req.CraftCost, req.SellingPrice)
		if err != nil {
			return err
		}

		for _, d := range draws {
			entry, err := material.NewConsumptionEntry(d.batch.ID, sku.ID,
				material.UsageActionCreate, d.total, d.perUnit, d.batch.UnitCost)
			if err != nil {
				return err
			}
			if err := repos.Ledger().Append(ctx, entry); err != nil {
				return err
			}

			newRemaining := d.remaining.Sub(d.total)
			if d.batch.ApplyDerivedStatus(newRemaining) {
				if err := repos.Batches().SaveWithLock(ctx, d.batch); err != nil {
					return err
				}
			} else if material.IsLowStock(d.batch, newRemaining) {
				d.batch.AddDomainEvent(material.NewStockBelowThresholdEvent(d.batch, newRemaining))
			}
			events = append(events, d.batch.GetDomainEvents()...)
			d.batch.ClearDomainEvents()
		}

		if err := repos.Skus().Save(ctx, sku); err != nil {
			return err
		}

		audit := product.NewAuditLog(sku, product.AuditOperationCreate, req.TotalUnits,
			emptySnapshot(), "initial manufacture", "recipe "+signature.Canonical())
		// The pre-creation snapshot is zero/zero: the SKU did not exist.
		if err := repos.AuditLogs().Append(ctx, audit); err != nil {
			return err
		}

		events = append(events, sku.GetDomainEvents()...)
		sku.ClearDomainEvents()

		snapshot = ToSkuSnapshot(sku)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &snapshot, nil
}

// publish delivers collected domain events after a successful commit.
// Errors are the event bus's problem, not the caller's.
func (s *CompositionService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// validateComposition rejects invalid requests before any write
func validateComposition(req CreateSkuRequest) error {
	if req.TotalUnits < 1 {
		return shared.NewDomainError("INVALID_COMPOSITION", "Total units must be at least 1")
	}
	if req.Name == "" {
		return shared.NewDomainError("INVALID_COMPOSITION", "SKU name cannot be empty")
	}
	if len(req.Materials) == 0 {
		return shared.NewDomainError("INVALID_COMPOSITION", "A SKU must consume at least one batch")
	}
	if req.LaborCost.IsNegative() || req.CraftCost.IsNegative() {
		return shared.NewDomainError("INVALID_COMPOSITION", "Costs cannot be negative")
	}
	if req.SellingPrice.IsNegative() {
		return shared.NewDomainError("INVALID_COMPOSITION", "Selling price cannot be negative")
	}

	seen := make(map[uuid.UUID]bool, len(req.Materials))
	for _, m := range req.Materials {
		if m.BatchID == uuid.Nil {
			return shared.NewDomainError("INVALID_COMPOSITION", "Material batch ID cannot be empty")
		}
		if m.QuantityPerUnit.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_COMPOSITION", "Material quantity per unit must be positive")
		}
		if seen[m.BatchID] {
			return shared.NewDomainError("INVALID_COMPOSITION", "Duplicate batch in material list")
		}
		seen[m.BatchID] = true
	}
	return nil
}

// generateSkuCode produces a short unique code when the caller supplies none
func generateSkuCode() string {
	return fmt.Sprintf("SKU-%s", strings.ToUpper(uuid.NewString()[:8]))
}

// emptySnapshot is the quantity snapshot of a SKU that does not exist yet
func emptySnapshot() product.QuantitySnapshot {
	return product.QuantitySnapshot{}
}
