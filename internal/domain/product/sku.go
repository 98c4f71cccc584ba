package product

import (
	"fmt"
	"time"

	"github.com/atelier/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SkuStatus controls whether a SKU is sellable. It is independent of the
// quantity fields.
type SkuStatus string

const (
	// SkuStatusActive means the SKU can be sold
	SkuStatusActive SkuStatus = "ACTIVE"
	// SkuStatusInactive means the SKU is withdrawn from sale
	SkuStatusInactive SkuStatus = "INACTIVE"
)

// IsValid returns true if the status is valid
func (s SkuStatus) IsValid() bool {
	return s == SkuStatusActive || s == SkuStatusInactive
}

// SKU is a manufactured, sellable unit composed from one or more material
// batches. SKUs are never deleted; the cost rollups and the signature form
// part of the financial audit trail.
type SKU struct {
	shared.BaseAggregateRoot
	Code              string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string          `gorm:"type:varchar(200);not null"`
	TotalQuantity     int             `gorm:"not null;default:0"`
	AvailableQuantity int             `gorm:"not null;default:0"`
	MaterialCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // cumulative
	LaborCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // cumulative
	CraftCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // cumulative
	TotalCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // material + labor + craft
	UnitLaborCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // fixed at first manufacture
	UnitCraftCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // fixed at first manufacture
	RecipeUnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // per-unit cost basis, fixed at first manufacture
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // TotalCost / TotalQuantity
	SellingPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProfitMargin      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // (selling - recipe cost) / selling
	Signature         Signature       `gorm:"type:jsonb"`
	SignatureHash     string          `gorm:"type:varchar(64);not null;index"`
	Status            SkuStatus       `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (SKU) TableName() string {
	return "skus"
}

// NewSKU creates a manufactured unit. The cost components are totals for the
// whole build; the per-unit cost basis and signature hash are fixed here and
// never change afterwards.
func NewSKU(code, name string, signature Signature, totalUnits int, materialCost, laborCost, craftCost, sellingPrice decimal.Decimal) (*SKU, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_SKU_CODE", "SKU code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_SKU_NAME", "SKU name cannot be empty")
	}
	if totalUnits < 1 {
		return nil, shared.NewDomainError("INVALID_COMPOSITION", "Total units must be at least 1")
	}
	if len(signature) == 0 {
		return nil, shared.NewDomainError("INVALID_COMPOSITION", "A SKU must consume at least one batch")
	}
	if materialCost.IsNegative() || laborCost.IsNegative() || craftCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Costs cannot be negative")
	}
	if sellingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	units := decimal.NewFromInt(int64(totalUnits))
	totalCost := materialCost.Add(laborCost).Add(craftCost)
	recipeUnitCost := totalCost.Div(units).Round(4)

	sku := &SKU{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		TotalQuantity:     totalUnits,
		AvailableQuantity: totalUnits,
		MaterialCost:      materialCost,
		LaborCost:         laborCost,
		CraftCost:         craftCost,
		TotalCost:         totalCost,
		UnitLaborCost:     laborCost.Div(units).Round(4),
		UnitCraftCost:     craftCost.Div(units).Round(4),
		RecipeUnitCost:    recipeUnitCost,
		UnitPrice:         recipeUnitCost,
		SellingPrice:      sellingPrice,
		ProfitMargin:      marginFor(sellingPrice, recipeUnitCost),
		Signature:         signature.Normalized(),
		SignatureHash:     signature.Hash(),
		Status:            SkuStatusActive,
	}

	sku.AddDomainEvent(NewSkuCreatedEvent(sku))

	return sku, nil
}

// marginFor computes (selling - cost) / selling; zero when not sellable
func marginFor(sellingPrice, unitCost decimal.Decimal) decimal.Decimal {
	if sellingPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return sellingPrice.Sub(unitCost).Div(sellingPrice).Round(4)
}

// recalculateUnitPrice keeps UnitPrice consistent with the cumulative cost
// and total quantity
func (s *SKU) recalculateUnitPrice() {
	if s.TotalQuantity <= 0 {
		s.UnitPrice = decimal.Zero
		return
	}
	s.UnitPrice = s.TotalCost.Div(decimal.NewFromInt(int64(s.TotalQuantity))).Round(4)
}

// touch bumps the optimistic-lock version and update timestamp
func (s *SKU) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Sell decrements the available quantity. Selling is not a material movement:
// the usage ledger is untouched.
func (s *SKU) Sell(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Sell quantity must be positive")
	}
	if s.Status != SkuStatusActive {
		return shared.NewDomainError("SKU_NOT_SELLABLE", fmt.Sprintf("SKU %s is withdrawn from sale", s.Code))
	}
	if s.AvailableQuantity < quantity {
		return NewInsufficientAvailableError(s, quantity)
	}

	s.AvailableQuantity -= quantity
	s.touch()
	s.AddDomainEvent(NewSkuSoldEvent(s, quantity))

	return nil
}

// Refund is the inverse of Sell: the unit comes back, not raw material
func (s *SKU) Refund(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Refund quantity must be positive")
	}

	s.AvailableQuantity += quantity
	s.TotalQuantity += quantity
	s.recalculateUnitPrice()
	s.touch()
	s.AddDomainEvent(NewSkuRefundedEvent(s, quantity))

	return nil
}

// Destroy removes units permanently, decrementing both quantity fields.
// Whether material flows back to the batches is the lifecycle manager's
// decision, recorded separately in the usage ledger.
func (s *SKU) Destroy(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Destroy quantity must be positive")
	}
	if s.AvailableQuantity < quantity {
		return NewInsufficientAvailableError(s, quantity)
	}

	s.AvailableQuantity -= quantity
	s.TotalQuantity -= quantity
	s.recalculateUnitPrice()
	s.touch()
	s.AddDomainEvent(NewSkuDestroyedEvent(s, quantity))

	return nil
}

// Restock adds newly manufactured units built from the original recipe.
// The added cost components are totals for the restocked units.
func (s *SKU) Restock(quantity int, addedMaterialCost, addedLaborCost, addedCraftCost decimal.Decimal) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	if addedMaterialCost.IsNegative() || addedLaborCost.IsNegative() || addedCraftCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Costs cannot be negative")
	}

	s.TotalQuantity += quantity
	s.AvailableQuantity += quantity
	s.MaterialCost = s.MaterialCost.Add(addedMaterialCost)
	s.LaborCost = s.LaborCost.Add(addedLaborCost)
	s.CraftCost = s.CraftCost.Add(addedCraftCost)
	s.TotalCost = s.MaterialCost.Add(s.LaborCost).Add(s.CraftCost)
	s.recalculateUnitPrice()
	s.touch()
	s.AddDomainEvent(NewSkuRestockedEvent(s, quantity))

	return nil
}

// ChangePrice sets a new selling price and recomputes the profit margin from
// the fixed recipe cost basis, not from the live cumulative cost.
func (s *SKU) ChangePrice(newPrice decimal.Decimal) error {
	if newPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	old := s.SellingPrice
	s.SellingPrice = newPrice
	s.ProfitMargin = marginFor(newPrice, s.RecipeUnitCost)
	s.touch()
	s.AddDomainEvent(NewSkuPriceChangedEvent(s, old, newPrice))

	return nil
}

// ChangeStatus switches the SKU between sellable and withdrawn
func (s *SKU) ChangeStatus(status SkuStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid SKU status")
	}
	if s.Status == status {
		return nil
	}

	s.Status = status
	s.touch()
	s.AddDomainEvent(NewSkuStatusChangedEvent(s, status))

	return nil
}

// IsActive returns true if the SKU is sellable
func (s *SKU) IsActive() bool {
	return s.Status == SkuStatusActive
}
