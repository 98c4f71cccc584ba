package workshop

import (
	"time"

	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Destroy reasons with special material-return semantics
const (
	// DestroyReasonRework allows returning only explicitly selected batches
	DestroyReasonRework = "rework"
	// DestroyReasonGift never returns material
	DestroyReasonGift = "gift"
	// DestroyReasonLost never returns material
	DestroyReasonLost = "lost"
)

// Control actions
const (
	ControlActionPrice  = "price"
	ControlActionStatus = "status"
)

// RegisterBatchRequest creates a raw-material purchase batch
type RegisterBatchRequest struct {
	Code           string                `json:"code" binding:"required"`
	Name           string                `json:"name" binding:"required"`
	Kind           material.MaterialKind `json:"kind" binding:"required"`
	PieceCount     decimal.Decimal       `json:"piece_count"`
	StringCount    decimal.Decimal       `json:"string_count"`
	BeadsPerString decimal.Decimal       `json:"beads_per_string"`
	TotalCost      decimal.Decimal       `json:"total_cost" binding:"required"`
	AlertThreshold *decimal.Decimal      `json:"alert_threshold,omitempty"`
}

// BatchResponse is the outward view of a purchase batch
type BatchResponse struct {
	ID               uuid.UUID             `json:"id"`
	Code             string                `json:"code"`
	Name             string                `json:"name"`
	Kind             material.MaterialKind `json:"kind"`
	OriginalQuantity decimal.Decimal       `json:"original_quantity"`
	UnitCost         decimal.Decimal       `json:"unit_cost"`
	TotalCost        decimal.Decimal       `json:"total_cost"`
	AlertThreshold   *decimal.Decimal      `json:"alert_threshold,omitempty"`
	Status           material.BatchStatus  `json:"status"`
	CreatedAt        time.Time             `json:"created_at"`
}

// ToBatchResponse converts a batch to its response form
func ToBatchResponse(b *material.Batch) BatchResponse {
	return BatchResponse{
		ID:               b.ID,
		Code:             b.Code,
		Name:             b.Name,
		Kind:             b.Kind,
		OriginalQuantity: b.OriginalQuantity(),
		UnitCost:         b.UnitCost,
		TotalCost:        b.TotalCost,
		AlertThreshold:   b.AlertThreshold,
		Status:           b.Status,
		CreatedAt:        b.CreatedAt,
	}
}

// StockLevelResponse is the derived stock position of a batch
type StockLevelResponse struct {
	BatchID    uuid.UUID            `json:"batch_id"`
	Code       string               `json:"code"`
	Remaining  decimal.Decimal      `json:"remaining"`
	IsLowStock bool                 `json:"is_low_stock"`
	Status     material.BatchStatus `json:"status"`
}

// MaterialInput is one recipe line of a composition request: the quantity is
// the per-SKU-unit consumption of the batch.
type MaterialInput struct {
	BatchID         uuid.UUID       `json:"batch_id" binding:"required"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" binding:"required"`
}

// CreateSkuRequest manufactures a new SKU from one or more batches
type CreateSkuRequest struct {
	Code         string          `json:"code"`
	Name         string          `json:"name" binding:"required"`
	Materials    []MaterialInput `json:"materials" binding:"required"`
	TotalUnits   int             `json:"total_units" binding:"required,min=1"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	CraftCost    decimal.Decimal `json:"craft_cost"`
}

// SellRequest sells units of a SKU
type SellRequest struct {
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	BuyerName      string `json:"buyer_name"`
	BuyerContact   string `json:"buyer_contact"`
	IdempotencyKey string `json:"-"`
}

// DestroyRequest destroys units of a SKU, optionally returning material
type DestroyRequest struct {
	Quantity         int                           `json:"quantity" binding:"required,min=1"`
	Reason           string                        `json:"reason" binding:"required"`
	ReturnToMaterial bool                          `json:"return_to_material"`
	SelectedBatches  []uuid.UUID                   `json:"selected_batches,omitempty"`
	CustomReturns    map[uuid.UUID]decimal.Decimal `json:"custom_returns,omitempty"`
	IdempotencyKey   string                        `json:"-"`
}

// RestockRequest manufactures additional units from the original recipe
type RestockRequest struct {
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	IdempotencyKey string `json:"-"`
}

// RefundRequest takes sold units back
type RefundRequest struct {
	Quantity       int              `json:"quantity" binding:"required,min=1"`
	Amount         *decimal.Decimal `json:"amount,omitempty"` // refunded money; defaults to selling price x quantity
	IdempotencyKey string           `json:"-"`
}

// ControlRequest adjusts the selling price or saleability status
type ControlRequest struct {
	Action string           `json:"action" binding:"required,oneof=price status"`
	Price  *decimal.Decimal `json:"price,omitempty"`
	Status *string          `json:"status,omitempty"`
	Reason string           `json:"reason" binding:"required"`
}

// SkuSnapshot is the outward view of a SKU after an operation
type SkuSnapshot struct {
	ID                uuid.UUID         `json:"id"`
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	TotalQuantity     int               `json:"total_quantity"`
	AvailableQuantity int               `json:"available_quantity"`
	MaterialCost      decimal.Decimal   `json:"material_cost"`
	LaborCost         decimal.Decimal   `json:"labor_cost"`
	CraftCost         decimal.Decimal   `json:"craft_cost"`
	TotalCost         decimal.Decimal   `json:"total_cost"`
	UnitPrice         decimal.Decimal   `json:"unit_price"`
	SellingPrice      decimal.Decimal   `json:"selling_price"`
	ProfitMargin      decimal.Decimal   `json:"profit_margin"`
	SignatureHash     string            `json:"signature_hash"`
	Status            product.SkuStatus `json:"status"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ToSkuSnapshot converts a SKU to its snapshot form
func ToSkuSnapshot(s *product.SKU) SkuSnapshot {
	return SkuSnapshot{
		ID:                s.ID,
		Code:              s.Code,
		Name:              s.Name,
		TotalQuantity:     s.TotalQuantity,
		AvailableQuantity: s.AvailableQuantity,
		MaterialCost:      s.MaterialCost,
		LaborCost:         s.LaborCost,
		CraftCost:         s.CraftCost,
		TotalCost:         s.TotalCost,
		UnitPrice:         s.UnitPrice,
		SellingPrice:      s.SellingPrice,
		ProfitMargin:      s.ProfitMargin,
		SignatureHash:     s.SignatureHash,
		Status:            s.Status,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ReturnedMaterial is one batch credited by a destroy operation
type ReturnedMaterial struct {
	BatchID  uuid.UUID       `json:"batch_id"`
	Code     string          `json:"code"`
	Quantity decimal.Decimal `json:"quantity"`
}

// DestroyResult is the outcome of a destroy operation
type DestroyResult struct {
	Sku               SkuSnapshot        `json:"sku"`
	ReturnedMaterials []ReturnedMaterial `json:"returned_materials"`
}
