package workshop

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atelier/backend/internal/domain/finance"
	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LifecycleService drives SKU state transitions: sell, destroy, restock,
// refund and price/status control. Each operation is one transaction; the
// sufficiency checks run inside it against the ledger, never against values
// read beforehand.
type LifecycleService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	idempotencyCfg shared.IdempotencyConfig
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(scope TransactionScope) *LifecycleService {
	return &LifecycleService{
		scope:          scope,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore enables duplicate suppression for client-retried
// mutations carrying an idempotency key
func (s *LifecycleService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idempotencyCfg = cfg
}

// checkIdempotency rejects keys whose operation already committed. The key is
// recorded only after a successful commit, so a failed attempt (insufficient
// stock, conflict) leaves the key free for the retry.
func (s *LifecycleService) checkIdempotency(ctx context.Context, operation, key string) error {
	if s.idempotency == nil || !s.idempotencyCfg.Enabled || key == "" {
		return nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, operation+":"+key)
	if err != nil {
		return err
	}
	if processed {
		return shared.NewDomainError("DUPLICATE_REQUEST", "Operation with this idempotency key was already processed")
	}
	return nil
}

// recordIdempotency marks the key after the transaction committed. The
// operation already succeeded; a store error here must not fail it.
func (s *LifecycleService) recordIdempotency(ctx context.Context, operation, key string) {
	if s.idempotency == nil || !s.idempotencyCfg.Enabled || key == "" {
		return
	}
	_, _ = s.idempotency.MarkProcessed(ctx, operation+":"+key, s.idempotencyCfg.TTL)
}

// publish delivers collected domain events after a successful commit
func (s *LifecycleService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// Sell decrements available quantity and posts the income record.
// Selling is not a material movement: the usage ledger is untouched.
func (s *LifecycleService) Sell(ctx context.Context, skuID uuid.UUID, req SellRequest) (*SkuSnapshot, error) {
	if err := s.checkIdempotency(ctx, "sell", req.IdempotencyKey); err != nil {
		return nil, err
	}

	var (
		snapshot SkuSnapshot
		events   []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sku, err := repos.Skus().FindByIDForUpdate(ctx, skuID)
		if err != nil {
			return err
		}

		before := product.SnapshotOf(sku)
		if err := sku.Sell(req.Quantity); err != nil {
			return err
		}
		if err := repos.Skus().SaveWithLock(ctx, sku); err != nil {
			return err
		}

		amount := sku.SellingPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(4)
		record, err := finance.NewRecord(finance.RecordKindIncome, amount,
			finance.SourceTypeSale, sku.ID, saleDescription(sku.Code, req))
		if err != nil {
			return err
		}
		if err := repos.FinancialRecords().Append(ctx, record); err != nil {
			return err
		}

		audit := product.NewAuditLog(sku, product.AuditOperationSell, -req.Quantity,
			before, buyerReason(req), "")
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

	s.recordIdempotency(ctx, "sell", req.IdempotencyKey)
	s.publish(ctx, events)
	return &snapshot, nil
}

// Destroy removes units permanently and, depending on the reason and the
// return policy, credits material back to the source batches at the recipe
// ratio. Reasons "gift" and "lost" never return material; reason "rework"
// with an explicit batch selection returns only the selected batches; any
// other reason returns every batch in the signature. Custom return
// quantities, when supplied, override the computed ratio-based return for
// specific batches and are recorded verbatim in the audit trail.
func (s *LifecycleService) Destroy(ctx context.Context, skuID uuid.UUID, req DestroyRequest) (*DestroyResult, error) {
	if err := s.checkIdempotency(ctx, "destroy", req.IdempotencyKey); err != nil {
		return nil, err
	}
	if req.Reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Destroy reason is required")
	}

	var (
		result DestroyResult
		events []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sku, err := repos.Skus().FindByIDForUpdate(ctx, skuID)
		if err != nil {
			return err
		}

		before := product.SnapshotOf(sku)
		if err := sku.Destroy(req.Quantity); err != nil {
			return err
		}

		returned := make([]ReturnedMaterial, 0)
		returnedValue := decimal.Zero

		if shouldReturnMaterial(req) {
			targets := returnTargets(sku.Signature, req)
			qty := decimal.NewFromInt(int64(req.Quantity))

			for _, batchID := range targets {
				batch, err := repos.Batches().FindByIDForUpdate(ctx, batchID)
				if err != nil {
					return err
				}

				entries, err := repos.Ledger().FindByBatch(ctx, batch.ID)
				if err != nil {
					return err
				}

				returnQty := material.RecipeRatio(sku.ID, batch.ID, entries).Mul(qty)
				if custom, ok := req.CustomReturns[batch.ID]; ok {
					// Operator override: accepted verbatim, not clamped to the recipe.
					returnQty = custom
				}
				if returnQty.LessThanOrEqual(decimal.Zero) {
					continue
				}

				entry, err := material.NewReturnEntry(batch.ID, sku.ID,
					material.UsageActionDestroy, returnQty, batch.UnitCost)
				if err != nil {
					return err
				}
				entry.WithNotes("destroy: " + req.Reason)
				if err := repos.Ledger().Append(ctx, entry); err != nil {
					return err
				}

				remaining := material.Remaining(batch, entries).Add(returnQty)
				if batch.ApplyDerivedStatus(remaining) {
					if err := repos.Batches().SaveWithLock(ctx, batch); err != nil {
						return err
					}
				}
				events = append(events, batch.GetDomainEvents()...)
				batch.ClearDomainEvents()

				returned = append(returned, ReturnedMaterial{
					BatchID:  batch.ID,
					Code:     batch.Code,
					Quantity: returnQty,
				})
				returnedValue = returnedValue.Add(batch.UnitCost.Mul(returnQty))
			}
		}

		if err := repos.Skus().SaveWithLock(ctx, sku); err != nil {
			return err
		}

		// Value destroyed beyond what flowed back to the batches is an expense.
		writeOff := sku.RecipeUnitCost.Mul(decimal.NewFromInt(int64(req.Quantity))).Sub(returnedValue).Round(4)
		if writeOff.GreaterThan(decimal.Zero) {
			record, err := finance.NewRecord(finance.RecordKindExpense, writeOff,
				finance.SourceTypeDestruction, sku.ID, fmt.Sprintf("destroy %d x %s (%s)", req.Quantity, sku.Code, req.Reason))
			if err != nil {
				return err
			}
			if err := repos.FinancialRecords().Append(ctx, record); err != nil {
				return err
			}
		}

		audit := product.NewAuditLog(sku, product.AuditOperationDestroy, -req.Quantity,
			before, req.Reason, destroyDetail(returned, req))
		if err := repos.AuditLogs().Append(ctx, audit); err != nil {
			return err
		}

		events = append(events, sku.GetDomainEvents()...)
		sku.ClearDomainEvents()
		result = DestroyResult{Sku: ToSkuSnapshot(sku), ReturnedMaterials: returned}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordIdempotency(ctx, "destroy", req.IdempotencyKey)
	s.publish(ctx, events)
	return &result, nil
}

// Restock manufactures additional units from the original recipe. Every batch
// in the signature is checked before any is consumed; one insufficient batch
// fails the whole operation with the complete shortfall list and no ledger
// write.
func (s *LifecycleService) Restock(ctx context.Context, skuID uuid.UUID, req RestockRequest) (*SkuSnapshot, error) {
	if err := s.checkIdempotency(ctx, "restock", req.IdempotencyKey); err != nil {
		return nil, err
	}

	var (
		snapshot SkuSnapshot
		events   []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sku, err := repos.Skus().FindByIDForUpdate(ctx, skuID)
		if err != nil {
			return err
		}
		if len(sku.Signature) == 0 {
			return shared.NewDomainError("INVALID_STATE", "SKU has no material signature to restock from")
		}

		qty := decimal.NewFromInt(int64(req.Quantity))

		type draw struct {
			batch     *material.Batch
			ratio     decimal.Decimal
			need      decimal.Decimal
			remaining decimal.Decimal
		}

		draws := make([]draw, 0, len(sku.Signature))
		shortfalls := make([]material.Shortfall, 0)

		for _, line := range sku.Signature {
			batch, err := repos.Batches().FindByIDForUpdate(ctx, line.BatchID)
			if err != nil {
				return err
			}

			entries, err := repos.Ledger().FindByBatch(ctx, batch.ID)
			if err != nil {
				return err
			}

			ratio := material.RecipeRatio(sku.ID, batch.ID, entries)
			need := ratio.Mul(qty)
			remaining := material.Remaining(batch, entries)

			if remaining.LessThan(need) {
				shortfalls = append(shortfalls, material.Shortfall{
					BatchID:   batch.ID,
					BatchCode: batch.Code,
					Required:  need,
					Available: remaining,
				})
				continue
			}

			draws = append(draws, draw{batch: batch, ratio: ratio, need: need, remaining: remaining})
		}

		if len(shortfalls) > 0 {
			return material.NewInsufficientStockError(shortfalls...)
		}

		before := product.SnapshotOf(sku)
		addedMaterial := decimal.Zero

		for _, d := range draws {
			entry, err := material.NewConsumptionEntry(d.batch.ID, sku.ID,
				material.UsageActionUse, d.need, d.ratio, d.batch.UnitCost)
			if err != nil {
				return err
			}
			if err := repos.Ledger().Append(ctx, entry); err != nil {
				return err
			}

			newRemaining := d.remaining.Sub(d.need)
			if d.batch.ApplyDerivedStatus(newRemaining) {
				if err := repos.Batches().SaveWithLock(ctx, d.batch); err != nil {
					return err
				}
			} else if material.IsLowStock(d.batch, newRemaining) {
				d.batch.AddDomainEvent(material.NewStockBelowThresholdEvent(d.batch, newRemaining))
			}
			events = append(events, d.batch.GetDomainEvents()...)
			d.batch.ClearDomainEvents()

			addedMaterial = addedMaterial.Add(d.batch.UnitCost.Mul(d.need).Round(4))
		}

		addedLabor := sku.UnitLaborCost.Mul(qty).Round(4)
		addedCraft := sku.UnitCraftCost.Mul(qty).Round(4)
		if err := sku.Restock(req.Quantity, addedMaterial, addedLabor, addedCraft); err != nil {
			return err
		}
		if err := repos.Skus().SaveWithLock(ctx, sku); err != nil {
			return err
		}

		audit := product.NewAuditLog(sku, product.AuditOperationRestock, req.Quantity,
			before, "restock from recipe", "")
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

	s.recordIdempotency(ctx, "restock", req.IdempotencyKey)
	s.publish(ctx, events)
	return &snapshot, nil
}

// Refund is the inverse of Sell: the unit comes back, not raw material.
// The usage ledger is untouched; income is reversed.
func (s *LifecycleService) Refund(ctx context.Context, skuID uuid.UUID, req RefundRequest) (*SkuSnapshot, error) {
	if err := s.checkIdempotency(ctx, "refund", req.IdempotencyKey); err != nil {
		return nil, err
	}

	var (
		snapshot SkuSnapshot
		events   []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sku, err := repos.Skus().FindByIDForUpdate(ctx, skuID)
		if err != nil {
			return err
		}

		before := product.SnapshotOf(sku)
		if err := sku.Refund(req.Quantity); err != nil {
			return err
		}
		if err := repos.Skus().SaveWithLock(ctx, sku); err != nil {
			return err
		}

		amount := sku.SellingPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(4)
		if req.Amount != nil {
			amount = *req.Amount
		}
		record, err := finance.NewRecord(finance.RecordKindIncome, amount.Neg(),
			finance.SourceTypeRefund, sku.ID, fmt.Sprintf("refund %d x %s", req.Quantity, sku.Code))
		if err != nil {
			return err
		}
		if err := repos.FinancialRecords().Append(ctx, record); err != nil {
			return err
		}

		audit := product.NewAuditLog(sku, product.AuditOperationRefund, req.Quantity,
			before, "refund", "")
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

	s.recordIdempotency(ctx, "refund", req.IdempotencyKey)
	s.publish(ctx, events)
	return &snapshot, nil
}

// Control adjusts the selling price or the saleability status. Neither
// touches quantities or the ledger; both are audited. A price change
// recomputes the profit margin from the fixed recipe cost basis.
func (s *LifecycleService) Control(ctx context.Context, skuID uuid.UUID, req ControlRequest) (*SkuSnapshot, error) {
	if req.Reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Control reason is required")
	}

	var (
		snapshot SkuSnapshot
		events   []shared.DomainEvent
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sku, err := repos.Skus().FindByIDForUpdate(ctx, skuID)
		if err != nil {
			return err
		}

		before := product.SnapshotOf(sku)
		var op product.AuditOperation
		var detail string

		switch req.Action {
		case ControlActionPrice:
			if req.Price == nil {
				return shared.NewDomainError("INVALID_INPUT", "Price value is required for a price action")
			}
			old := sku.SellingPrice
			if err := sku.ChangePrice(*req.Price); err != nil {
				return err
			}
			op = product.AuditOperationPriceChange
			detail = fmt.Sprintf("price %s -> %s", old.String(), req.Price.String())
		case ControlActionStatus:
			if req.Status == nil {
				return shared.NewDomainError("INVALID_INPUT", "Status value is required for a status action")
			}
			status := product.SkuStatus(strings.ToUpper(*req.Status))
			old := sku.Status
			if err := sku.ChangeStatus(status); err != nil {
				return err
			}
			op = product.AuditOperationStatusChange
			detail = fmt.Sprintf("status %s -> %s", old, status)
		default:
			return shared.NewDomainError("INVALID_INPUT", "Unknown control action")
		}

		if err := repos.Skus().SaveWithLock(ctx, sku); err != nil {
			return err
		}

		audit := product.NewAuditLog(sku, op, 0, before, req.Reason, detail)
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

// shouldReturnMaterial applies the reason policy: gift and lost destructions
// never return material, whatever the flag says
func shouldReturnMaterial(req DestroyRequest) bool {
	if !req.ReturnToMaterial {
		return false
	}
	reason := strings.ToLower(req.Reason)
	return reason != DestroyReasonGift && reason != DestroyReasonLost
}

// returnTargets picks which batches receive returned material: an explicit
// selection for rework destructions, the full signature otherwise
func returnTargets(signature product.Signature, req DestroyRequest) []uuid.UUID {
	if strings.ToLower(req.Reason) == DestroyReasonRework && len(req.SelectedBatches) > 0 {
		targets := make([]uuid.UUID, 0, len(req.SelectedBatches))
		for _, id := range req.SelectedBatches {
			if signature.Contains(id) {
				targets = append(targets, id)
			}
		}
		return targets
	}

	targets := make([]uuid.UUID, 0, len(signature))
	for _, line := range signature {
		targets = append(targets, line.BatchID)
	}
	return targets
}

// destroyDetail renders the audit detail of a destroy operation. Overrides
// are listed in batch-ID order so identical operations audit identically.
func destroyDetail(returned []ReturnedMaterial, req DestroyRequest) string {
	parts := make([]string, 0, len(returned)+len(req.CustomReturns))
	for _, r := range returned {
		parts = append(parts, fmt.Sprintf("returned %s to %s", r.Quantity.String(), r.Code))
	}

	overrides := make([]uuid.UUID, 0, len(req.CustomReturns))
	for id := range req.CustomReturns {
		overrides = append(overrides, id)
	}
	sort.Slice(overrides, func(i, j int) bool {
		return overrides[i].String() < overrides[j].String()
	})
	for _, id := range overrides {
		parts = append(parts, fmt.Sprintf("custom override %s=%s", id.String(), req.CustomReturns[id].String()))
	}

	if len(parts) == 0 {
		return "no material returned"
	}
	return strings.Join(parts, "; ")
}

func saleDescription(code string, req SellRequest) string {
	if req.BuyerName != "" {
		return fmt.Sprintf("sale %d x %s to %s", req.Quantity, code, req.BuyerName)
	}
	return fmt.Sprintf("sale %d x %s", req.Quantity, code)
}

func buyerReason(req SellRequest) string {
	if req.BuyerName == "" {
		return "sale"
	}
	reason := "sale to " + req.BuyerName
	if req.BuyerContact != "" {
		reason += " (" + req.BuyerContact + ")"
	}
	return reason
}
