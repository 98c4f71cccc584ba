package material

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shortfall describes one batch that cannot cover a requested consumption
type Shortfall struct {
	BatchID   uuid.UUID       `json:"batch_id"`
	BatchCode string          `json:"batch_code"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// InsufficientStockError is returned when one or more batches cannot cover a
// requested consumption. It always carries the full per-batch detail so the
// caller can display a precise message; the operation that produced it was
// never partially applied.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("batch %s requires %s but only %s remaining",
			s.BatchCode, s.Required.String(), s.Available.String()))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// Code returns the stable error code for this error class
func (e *InsufficientStockError) Code() string {
	return "INSUFFICIENT_STOCK"
}

// NewInsufficientStockError creates an InsufficientStockError from shortfalls
func NewInsufficientStockError(shortfalls ...Shortfall) *InsufficientStockError {
	return &InsufficientStockError{Shortfalls: shortfalls}
}
