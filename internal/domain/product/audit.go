package product

import (
	"time"

	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditOperation names the lifecycle operation recorded in an audit entry
type AuditOperation string

const (
	// AuditOperationCreate is the first manufacture of the SKU
	AuditOperationCreate AuditOperation = "CREATE"
	// AuditOperationSell is a sale
	AuditOperationSell AuditOperation = "SELL"
	// AuditOperationDestroy is a destruction (with or without material return)
	AuditOperationDestroy AuditOperation = "DESTROY"
	// AuditOperationRestock is manufacture of additional units from the recipe
	AuditOperationRestock AuditOperation = "RESTOCK"
	// AuditOperationRefund is a returned sale
	AuditOperationRefund AuditOperation = "REFUND"
	// AuditOperationPriceChange is a selling-price adjustment
	AuditOperationPriceChange AuditOperation = "PRICE_CHANGE"
	// AuditOperationStatusChange is an ACTIVE/INACTIVE switch
	AuditOperationStatusChange AuditOperation = "STATUS_CHANGE"
)

// AuditLog is one append-only record of a SKU lifecycle operation with the
// before/after quantity snapshots. Written only when the operation commits;
// never mutated afterwards.
type AuditLog struct {
	shared.BaseEntity
	SkuID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_sku_time,priority:1"`
	Operation       AuditOperation `gorm:"type:varchar(30);not null;index"`
	QuantityDelta   int            `gorm:"not null"`
	TotalBefore     int            `gorm:"not null"`
	TotalAfter      int            `gorm:"not null"`
	AvailableBefore int            `gorm:"not null"`
	AvailableAfter  int            `gorm:"not null"`
	Reason          string         `gorm:"type:varchar(255)"`
	Detail          string         `gorm:"type:text"` // free-form context, e.g. custom return overrides
	LoggedAt        time.Time      `gorm:"type:timestamptz;not null;index:idx_audit_sku_time,priority:2"`
}

// TableName returns the table name for GORM
func (AuditLog) TableName() string {
	return "sku_audit_logs"
}

// QuantitySnapshot captures a SKU's quantity fields before a mutation
type QuantitySnapshot struct {
	Total     int
	Available int
}

// SnapshotOf captures the current quantity fields of a SKU
func SnapshotOf(s *SKU) QuantitySnapshot {
	return QuantitySnapshot{Total: s.TotalQuantity, Available: s.AvailableQuantity}
}

// NewAuditLog builds an audit record from a pre-mutation snapshot and the
// mutated SKU
func NewAuditLog(s *SKU, op AuditOperation, quantityDelta int, before QuantitySnapshot, reason, detail string) *AuditLog {
	return &AuditLog{
		BaseEntity:      shared.NewBaseEntity(),
		SkuID:           s.ID,
		Operation:       op,
		QuantityDelta:   quantityDelta,
		TotalBefore:     before.Total,
		TotalAfter:      s.TotalQuantity,
		AvailableBefore: before.Available,
		AvailableAfter:  s.AvailableQuantity,
		Reason:          reason,
		Detail:          detail,
		LoggedAt:        time.Now(),
	}
}
