package finance

import (
	"context"
	"time"

	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordKind classifies a financial record
type RecordKind string

const (
	// RecordKindIncome is money coming in (sales); refunds are negative income
	RecordKindIncome RecordKind = "INCOME"
	// RecordKindExpense is money going out (write-offs, losses)
	RecordKindExpense RecordKind = "EXPENSE"
)

// IsValid returns true if the record kind is valid
func (k RecordKind) IsValid() bool {
	return k == RecordKindIncome || k == RecordKindExpense
}

// SourceType names the operation that produced a financial record
type SourceType string

const (
	// SourceTypeSale is a SKU sale
	SourceTypeSale SourceType = "SALE"
	// SourceTypeRefund is a returned sale
	SourceTypeRefund SourceType = "REFUND"
	// SourceTypeDestruction is a destroy write-off
	SourceTypeDestruction SourceType = "DESTRUCTION"
)

// Record is one income/expense posting produced by a SKU lifecycle operation.
// It is written in the same transaction as the operation it describes.
type Record struct {
	shared.BaseEntity
	Kind        RecordKind      `gorm:"type:varchar(20);not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // signed: refunds post negative income
	SourceType  SourceType      `gorm:"type:varchar(30);not null;index:idx_fin_source"`
	SourceID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_fin_source"`
	Description string          `gorm:"type:varchar(255)"`
	RecordedAt  time.Time       `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (Record) TableName() string {
	return "financial_records"
}

// NewRecord creates a financial record
func NewRecord(kind RecordKind, amount decimal.Decimal, sourceType SourceType, sourceID uuid.UUID, description string) (*Record, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_RECORD_KIND", "Invalid financial record kind")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Source ID cannot be empty")
	}

	return &Record{
		BaseEntity:  shared.NewBaseEntity(),
		Kind:        kind,
		Amount:      amount,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Description: description,
		RecordedAt:  time.Now(),
	}, nil
}

// RecordRepository defines the persistence interface for financial records
type RecordRepository interface {
	// Append writes a new financial record
	Append(ctx context.Context, record *Record) error
	// FindBySource returns records produced by a given source document
	FindBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]Record, error)
}
