package material

import (
	"github.com/shopspring/decimal"
)

// StockLevel is the derived stock position of a batch
type StockLevel struct {
	Remaining  decimal.Decimal
	IsLowStock bool
	Status     BatchStatus
}

// NetConsumed returns the net algebraic sum of ledger deltas: consumption
// entries add, return entries subtract. The absolute sum is never used, so
// returns correctly restore stock.
func NetConsumed(entries []UsageEntry) decimal.Decimal {
	net := decimal.Zero
	for i := range entries {
		net = net.Add(entries[i].QuantityDelta)
	}
	return net
}

// Remaining returns the batch's remaining quantity: original quantity minus
// the net ledger movement. Pure function, callable inside or outside a
// transaction.
func Remaining(b *Batch, entries []UsageEntry) decimal.Decimal {
	return b.OriginalQuantity().Sub(NetConsumed(entries))
}

// IsLowStock reports whether the remaining quantity is at or below the
// batch's alert threshold. Batches without a threshold never report low.
func IsLowStock(b *Batch, remaining decimal.Decimal) bool {
	if b.AlertThreshold == nil {
		return false
	}
	return remaining.LessThanOrEqual(*b.AlertThreshold)
}

// DerivedStatus returns the status implied by a remaining quantity:
// USED when nothing is left, ACTIVE otherwise.
func DerivedStatus(remaining decimal.Decimal) BatchStatus {
	if remaining.LessThanOrEqual(decimal.Zero) {
		return BatchStatusUsed
	}
	return BatchStatusActive
}

// Level computes the full derived stock position of a batch from its ledger
// entries.
func Level(b *Batch, entries []UsageEntry) StockLevel {
	remaining := Remaining(b, entries)
	return StockLevel{
		Remaining:  remaining,
		IsLowStock: IsLowStock(b, remaining),
		Status:     DerivedStatus(remaining),
	}
}

// CanConsume reports whether the batch has at least the requested quantity
// remaining.
func CanConsume(b *Batch, entries []UsageEntry, quantity decimal.Decimal) bool {
	return Remaining(b, entries).GreaterThanOrEqual(quantity)
}
