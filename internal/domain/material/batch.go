package material

import (
	"time"

	"github.com/atelier/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaterialKind determines how a batch counts its original quantity
type MaterialKind string

const (
	// MaterialKindLooseBeads is loose beads purchased by piece count
	MaterialKindLooseBeads MaterialKind = "LOOSE_BEADS"
	// MaterialKindStrungBracelet is pre-strung strands, counted as strings times beads per string
	MaterialKindStrungBracelet MaterialKind = "STRUNG_BRACELET"
	// MaterialKindAccessory is findings/clasps/spacers counted by piece
	MaterialKindAccessory MaterialKind = "ACCESSORY"
	// MaterialKindFinishedGood is ready-made items purchased for resale, counted by piece
	MaterialKindFinishedGood MaterialKind = "FINISHED_GOOD"
)

// String returns the string representation of MaterialKind
func (k MaterialKind) String() string {
	return string(k)
}

// IsValid returns true if the material kind is valid
func (k MaterialKind) IsValid() bool {
	switch k {
	case MaterialKindLooseBeads, MaterialKindStrungBracelet, MaterialKindAccessory, MaterialKindFinishedGood:
		return true
	}
	return false
}

// BatchStatus represents the lifecycle status of a purchase batch
type BatchStatus string

const (
	// BatchStatusActive means the batch has, or may regain, usable stock
	BatchStatusActive BatchStatus = "ACTIVE"
	// BatchStatusUsed means the batch is fully consumed by the ledger
	BatchStatusUsed BatchStatus = "USED"
)

// Batch represents one raw-material purchase record.
// It is the aggregate root for stock tracking: remaining quantity is never
// stored on the batch, it is always derived from the usage ledger.
type Batch struct {
	shared.BaseAggregateRoot
	Code           string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string           `gorm:"type:varchar(200);not null"`
	Kind           MaterialKind     `gorm:"type:varchar(30);not null;index"`
	PieceCount     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"` // LOOSE_BEADS / ACCESSORY / FINISHED_GOOD
	StringCount    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"` // STRUNG_BRACELET
	BeadsPerString decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"` // STRUNG_BRACELET, optional multiplier
	UnitCost       decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"` // per piece/bead, derived at creation
	TotalCost      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	AlertThreshold *decimal.Decimal `gorm:"type:decimal(18,4)"` // low-stock alert threshold (optional)
	Status         BatchStatus      `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "material_batches"
}

// NewBatch creates a new purchase batch. The unit cost is derived from the
// total cost divided by the kind-dependent original quantity.
func NewBatch(code, name string, kind MaterialKind, pieceCount, stringCount, beadsPerString, totalCost decimal.Decimal) (*Batch, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_CODE", "Batch code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NAME", "Batch name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MATERIAL_KIND", "Invalid material kind")
	}
	if pieceCount.IsNegative() || stringCount.IsNegative() || beadsPerString.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantities cannot be negative")
	}
	if totalCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Total cost cannot be negative")
	}

	b := &Batch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Kind:              kind,
		PieceCount:        pieceCount,
		StringCount:       stringCount,
		BeadsPerString:    beadsPerString,
		TotalCost:         totalCost,
		Status:            BatchStatusActive,
	}

	original := b.OriginalQuantity()
	if original.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Original quantity must be positive")
	}
	b.UnitCost = totalCost.Div(original).Round(4)

	b.AddDomainEvent(NewBatchRegisteredEvent(b))

	return b, nil
}

// OriginalQuantity returns the purchase quantity of the batch in its smallest
// countable unit. The field holding the quantity depends on the material kind:
// piece count for loose beads, accessories and finished goods; string count
// (multiplied by beads per string when recorded) for strung bracelets.
func (b *Batch) OriginalQuantity() decimal.Decimal {
	switch b.Kind {
	case MaterialKindStrungBracelet:
		if b.BeadsPerString.GreaterThan(decimal.Zero) {
			return b.StringCount.Mul(b.BeadsPerString)
		}
		return b.StringCount
	case MaterialKindLooseBeads, MaterialKindAccessory, MaterialKindFinishedGood:
		return b.PieceCount
	default:
		return decimal.Zero
	}
}

// SetAlertThreshold sets the low-stock alert threshold
func (b *Batch) SetAlertThreshold(threshold decimal.Decimal) error {
	if threshold.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Alert threshold cannot be negative")
	}
	b.AlertThreshold = &threshold
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// ApplyDerivedStatus reconciles the batch status with the ledger-derived
// remaining quantity. Returns true if the status changed. A batch flips to
// USED when remaining reaches zero and back to ACTIVE when a later return
// drives remaining above zero again.
func (b *Batch) ApplyDerivedStatus(remaining decimal.Decimal) bool {
	derived := DerivedStatus(remaining)
	if derived == b.Status {
		return false
	}

	b.Status = derived
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	if derived == BatchStatusUsed {
		b.AddDomainEvent(NewBatchDepletedEvent(b))
	} else {
		b.AddDomainEvent(NewBatchReplenishedEvent(b, remaining))
	}

	return true
}

// IsUsed returns true if the batch is fully consumed
func (b *Batch) IsUsed() bool {
	return b.Status == BatchStatusUsed
}
