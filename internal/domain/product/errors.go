package product

import (
	"fmt"

	"github.com/google/uuid"
)

// InsufficientAvailableError is returned when a sell or destroy requests more
// units than the SKU has available. The operation was never partially applied.
type InsufficientAvailableError struct {
	SkuID     uuid.UUID `json:"sku_id"`
	SkuCode   string    `json:"sku_code"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Error implements the error interface
func (e *InsufficientAvailableError) Error() string {
	return fmt.Sprintf("insufficient available quantity for SKU %s: requested %d, available %d",
		e.SkuCode, e.Requested, e.Available)
}

// Code returns the stable error code for this error class
func (e *InsufficientAvailableError) Code() string {
	return "INSUFFICIENT_AVAILABLE"
}

// NewInsufficientAvailableError creates an InsufficientAvailableError for a SKU
func NewInsufficientAvailableError(s *SKU, requested int) *InsufficientAvailableError {
	return &InsufficientAvailableError{
		SkuID:     s.ID,
		SkuCode:   s.Code,
		Requested: requested,
		Available: s.AvailableQuantity,
	}
}
