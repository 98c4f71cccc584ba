package product

import (
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the product context
const (
	EventTypeSkuCreated       = "product.sku_created"
	EventTypeSkuSold          = "product.sku_sold"
	EventTypeSkuDestroyed     = "product.sku_destroyed"
	EventTypeSkuRestocked     = "product.sku_restocked"
	EventTypeSkuRefunded      = "product.sku_refunded"
	EventTypeSkuPriceChanged  = "product.sku_price_changed"
	EventTypeSkuStatusChanged = "product.sku_status_changed"
)

const aggregateTypeSku = "SKU"

// SkuCreatedEvent is emitted when a SKU is first manufactured
type SkuCreatedEvent struct {
	shared.BaseDomainEvent
	Code          string `json:"code"`
	TotalQuantity int    `json:"total_quantity"`
	SignatureHash string `json:"signature_hash"`
}

// NewSkuCreatedEvent creates a new SkuCreatedEvent
func NewSkuCreatedEvent(s *SKU) *SkuCreatedEvent {
	return &SkuCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSkuCreated, aggregateTypeSku, s.ID),
		Code:            s.Code,
		TotalQuantity:   s.TotalQuantity,
		SignatureHash:   s.SignatureHash,
	}
}

// SkuSoldEvent is emitted when units are sold
type SkuSoldEvent struct {
	shared.BaseDomainEvent
	Code      string `json:"code"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
}

// NewSkuSoldEvent creates a new SkuSoldEvent
func NewSkuSoldEvent(s *SKU, quantity int) *SkuSoldEvent {
	return &SkuSoldEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSkuSold, aggregateTypeSku, s.ID),
		Code:            s.Code,
		Quantity:        quantity,
		Available:       s.AvailableQuantity,
	}
}

// SkuDestroyedEvent is emitted when units are destroyed
type SkuDestroyedEvent struct {
	shared.BaseDomainEvent
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	Total    int    `json:"total"`
}

// NewSkuDestroyedEvent creates a new SkuDestroyedEvent
func NewSkuDestroyedEvent(s *SKU, quantity int) *SkuDestroyedEvent {
	return &SkuDestroyedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSkuDestroyed, aggregateTypeSku, s.ID),
		Code:            s.Code,
		Quantity:        quantity,
		Total:           s.TotalQuantity,
	}
}

// SkuRestockedEvent is emitted when additional units are manufactured
type SkuRestockedEvent struct {
	shared.BaseDomainEvent
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	Total    int    `json:"total"`
}

// NewSkuRestockedEvent creates a new SkuRestockedEvent
func NewSkuRestockedEvent(s *SKU, quantity int) *SkuRestockedEvent {
	return &SkuRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSkuRestocked, aggregateTypeSku, s.ID),
		Code:            s.Code,
		Quantity:        quantity,
		Total:           s.TotalQuantity,
	}
}

// SkuRefundedEvent is emitted when sold units come back
type SkuRefundedEvent struct {
	shared.BaseDomainEvent
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// NewSkuRefundedEvent creates a new SkuRefundedEvent
func NewSkuRefundedEvent(s *SKU, quantity int) *SkuRefundedEvent {
	return &SkuRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSkuRefunded, aggregateTypeSku, s.ID),
		Code:            s.Code,
		Quantity:        quantity,
	}
}

// SkuPriceChangedEvent is emitted when the selling price changes
type SkuPriceChangedEvent struct {
	shared.BaseDomainEvent
	Code     string          `json:"code"`
	OldPrice decimal.Decimal `json:"old_price"`
	NewPrice decimal.Decimal `json:"new_price"`
}

// NewSkuPriceChangedEvent creates a new SkuPriceChangedEvent
func NewSkuPriceChangedEvent(s *SKU, oldPrice, newPrice decimal.Decimal) *SkuPriceChangedEvent {
	return &SkuPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSkuPriceChanged, aggregateTypeSku, s.ID),
		Code:            s.Code,
		OldPrice:        oldPrice,
		NewPrice:        newPrice,
	}
}

// SkuStatusChangedEvent is emitted when the saleability status changes
type SkuStatusChangedEvent struct {
	shared.BaseDomainEvent
	Code   string    `json:"code"`
	Status SkuStatus `json:"status"`
}

// NewSkuStatusChangedEvent creates a new SkuStatusChangedEvent
func NewSkuStatusChangedEvent(s *SKU, status SkuStatus) *SkuStatusChangedEvent {
	return &SkuStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSkuStatusChanged, aggregateTypeSku, s.ID),
		Code:            s.Code,
		Status:          status,
	}
}
