package material

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeRatio recovers the per-unit consumption ratio for a (SKU, batch)
// pair: how much of the batch is consumed to manufacture one unit of the SKU.
//
// The ratio is fixed at first manufacture. The entries must be ordered by
// creation time ascending; the first CREATE or USE entry for the pair wins,
// so later restocks reuse the original ratio instead of re-deriving it from
// drifting totals. If no consumption entry exists the ratio defaults to 1.
func RecipeRatio(skuID, batchID uuid.UUID, entries []UsageEntry) decimal.Decimal {
	for i := range entries {
		e := &entries[i]
		if e.BatchID != batchID {
			continue
		}
		if e.SkuID == nil || *e.SkuID != skuID {
			continue
		}
		if !e.Action.IsConsumption() {
			continue
		}
		if e.PerUnitQuantity.GreaterThan(decimal.Zero) {
			return e.PerUnitQuantity
		}
		// Legacy entries without a ratio snapshot fall back to the raw delta.
		if e.QuantityDelta.GreaterThan(decimal.Zero) {
			return e.QuantityDelta
		}
	}
	return decimal.NewFromInt(1)
}
