package material

import (
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the material context
const (
	EventTypeBatchRegistered     = "material.batch_registered"
	EventTypeBatchDepleted       = "material.batch_depleted"
	EventTypeBatchReplenished    = "material.batch_replenished"
	EventTypeStockBelowThreshold = "material.stock_below_threshold"
)

const aggregateTypeBatch = "Batch"

// BatchRegisteredEvent is emitted when a purchase batch is created
type BatchRegisteredEvent struct {
	shared.BaseDomainEvent
	Code             string          `json:"code"`
	Kind             MaterialKind    `json:"kind"`
	OriginalQuantity decimal.Decimal `json:"original_quantity"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

// NewBatchRegisteredEvent creates a new BatchRegisteredEvent
func NewBatchRegisteredEvent(b *Batch) *BatchRegisteredEvent {
	return &BatchRegisteredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeBatchRegistered, aggregateTypeBatch, b.ID),
		Code:             b.Code,
		Kind:             b.Kind,
		OriginalQuantity: b.OriginalQuantity(),
		TotalCost:        b.TotalCost,
	}
}

// BatchDepletedEvent is emitted when the ledger fully consumes a batch
type BatchDepletedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewBatchDepletedEvent creates a new BatchDepletedEvent
func NewBatchDepletedEvent(b *Batch) *BatchDepletedEvent {
	return &BatchDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchDepleted, aggregateTypeBatch, b.ID),
		Code:            b.Code,
	}
}

// BatchReplenishedEvent is emitted when a return flips a used batch back to active
type BatchReplenishedEvent struct {
	shared.BaseDomainEvent
	Code      string          `json:"code"`
	Remaining decimal.Decimal `json:"remaining"`
}

// NewBatchReplenishedEvent creates a new BatchReplenishedEvent
func NewBatchReplenishedEvent(b *Batch, remaining decimal.Decimal) *BatchReplenishedEvent {
	return &BatchReplenishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchReplenished, aggregateTypeBatch, b.ID),
		Code:            b.Code,
		Remaining:       remaining,
	}
}

// StockBelowThresholdEvent is emitted when remaining stock crosses the alert threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	Code      string          `json:"code"`
	Remaining decimal.Decimal `json:"remaining"`
	Threshold decimal.Decimal `json:"threshold"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(b *Batch, remaining decimal.Decimal) *StockBelowThresholdEvent {
	threshold := decimal.Zero
	if b.AlertThreshold != nil {
		threshold = *b.AlertThreshold
	}
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, aggregateTypeBatch, b.ID),
		Code:            b.Code,
		Remaining:       remaining,
		Threshold:       threshold,
	}
}
