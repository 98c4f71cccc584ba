package material

import (
	"time"

	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UsageAction tags the business operation that produced a ledger entry.
// It is informational only: all stock arithmetic uses the signed QuantityDelta.
type UsageAction string

const (
	// UsageActionCreate is consumption at first manufacture of a SKU
	UsageActionCreate UsageAction = "CREATE"
	// UsageActionUse is consumption during a restock of an existing SKU
	UsageActionUse UsageAction = "USE"
	// UsageActionReturn is material returned to the batch
	UsageActionReturn UsageAction = "RETURN"
	// UsageActionDestroy tags a return issued by a destroy operation
	UsageActionDestroy UsageAction = "DESTROY"
)

// String returns the string representation of UsageAction
func (a UsageAction) String() string {
	return string(a)
}

// IsValid returns true if the usage action is valid
func (a UsageAction) IsValid() bool {
	switch a {
	case UsageActionCreate, UsageActionUse, UsageActionReturn, UsageActionDestroy:
		return true
	}
	return false
}

// IsConsumption returns true for actions that take material out of a batch
func (a UsageAction) IsConsumption() bool {
	return a == UsageActionCreate || a == UsageActionUse
}

// IsReturn returns true for actions that give material back to a batch
func (a UsageAction) IsReturn() bool {
	return a == UsageActionReturn || a == UsageActionDestroy
}

// UsageEntry is one immutable row of the material usage ledger.
// Consumption is recorded with a positive QuantityDelta, returns with a
// negative one. Corrections are made by appending offsetting entries,
// never by editing history.
type UsageEntry struct {
	shared.BaseEntity
	BatchID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_usage_batch_time,priority:1"`
	SkuID           *uuid.UUID      `gorm:"type:uuid;index"` // manufactured unit that triggered the movement
	Action          UsageAction     `gorm:"type:varchar(20);not null;index"`
	QuantityDelta   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // signed: consumption > 0, return < 0
	PerUnitQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // recipe ratio snapshot, set on consumption entries
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // cost snapshot at time of movement
	TotalCost       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Notes           string          `gorm:"type:varchar(255)"`
	EntryDate       time.Time       `gorm:"type:timestamptz;not null;index:idx_usage_batch_time,priority:2"`
}

// TableName returns the table name for GORM
func (UsageEntry) TableName() string {
	return "usage_entries"
}

// NewConsumptionEntry records material taken from a batch for a manufactured
// unit. The quantity is the total consumed by the operation; perUnit is the
// per-SKU-unit recipe ratio snapshot.
func NewConsumptionEntry(batchID, skuID uuid.UUID, action UsageAction, quantity, perUnit, unitCost decimal.Decimal) (*UsageEntry, error) {
	if batchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BATCH", "Batch ID cannot be empty")
	}
	if !action.IsConsumption() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Consumption entries require a CREATE or USE action")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	entry := &UsageEntry{
		BaseEntity:      shared.NewBaseEntity(),
		BatchID:         batchID,
		Action:          action,
		QuantityDelta:   quantity,
		PerUnitQuantity: perUnit,
		UnitCost:        unitCost,
		TotalCost:       unitCost.Mul(quantity).Round(4),
		EntryDate:       time.Now(),
	}
	if skuID != uuid.Nil {
		entry.SkuID = &skuID
	}
	return entry, nil
}

// NewReturnEntry records material given back to a batch. The quantity is
// passed positive and stored as a negative delta.
func NewReturnEntry(batchID, skuID uuid.UUID, action UsageAction, quantity, unitCost decimal.Decimal) (*UsageEntry, error) {
	if batchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BATCH", "Batch ID cannot be empty")
	}
	if !action.IsReturn() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Return entries require a RETURN or DESTROY action")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Returned quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	entry := &UsageEntry{
		BaseEntity:    shared.NewBaseEntity(),
		BatchID:       batchID,
		Action:        action,
		QuantityDelta: quantity.Neg(),
		UnitCost:      unitCost,
		TotalCost:     unitCost.Mul(quantity).Neg().Round(4),
		EntryDate:     time.Now(),
	}
	if skuID != uuid.Nil {
		entry.SkuID = &skuID
	}
	return entry, nil
}

// WithNotes sets a free-text note on the entry
func (e *UsageEntry) WithNotes(notes string) *UsageEntry {
	e.Notes = notes
	return e
}

// IsConsumption returns true if the entry took material out of the batch
func (e *UsageEntry) IsConsumption() bool {
	return e.QuantityDelta.GreaterThan(decimal.Zero)
}

// IsReturn returns true if the entry gave material back to the batch
func (e *UsageEntry) IsReturn() bool {
	return e.QuantityDelta.LessThan(decimal.Zero)
}
