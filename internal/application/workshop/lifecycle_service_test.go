package workshop

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/atelier/backend/internal/domain/finance"
	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLifecycleService(f *fixture) *LifecycleService {
	svc := NewLifecycleService(f.scope)
	svc.SetEventPublisher(f.publisher)
	return svc
}

// manufacture builds a 10-unit SKU drawing 3 pieces per unit from a fresh
// 100-piece batch at unit cost 0.5, with 20 labor and 10 craft, selling at 15.
// Recipe unit cost is 4.5.
func manufacture(t *testing.T, f *fixture) (skuID, batchID uuid.UUID) {
	t.Helper()
	batchID = seedBatch(t, f, "B-SRC", "100", "50")

	snapshot, err := newCompositionService(f).CreateSku(context.Background(), CreateSkuRequest{
		Code:         "SKU-LIFE",
		Name:         "bracelet",
		Materials:    []MaterialInput{{BatchID: batchID, QuantityPerUnit: d("3")}},
		TotalUnits:   10,
		SellingPrice: d("15"),
		LaborCost:    d("20"),
		CraftCost:    d("10"),
	})
	require.NoError(t, err)
	f.publisher.Reset()
	return snapshot.ID, batchID
}

func TestLifecycleService_Sell(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements available and posts income", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		snapshot, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 3, BuyerName: "Mara"})
		require.NoError(t, err)

		assert.Equal(t, 7, snapshot.AvailableQuantity)
		assert.Equal(t, 10, snapshot.TotalQuantity)

		records, err := f.records.FindBySource(ctx, finance.SourceTypeSale, skuID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, finance.RecordKindIncome, records[0].Kind)
		assert.True(t, records[0].Amount.Equal(d("45")))

		// Selling is not a material movement
		entries, err := f.ledger.FindByBatch(ctx, batchID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		logs, err := f.audits.FindBySku(ctx, skuID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, product.AuditOperationSell, logs[1].Operation)
		assert.Equal(t, -3, logs[1].QuantityDelta)
		assert.Equal(t, 10, logs[1].AvailableBefore)
		assert.Equal(t, 7, logs[1].AvailableAfter)

		assert.Len(t, f.publisher.GetEventsByType(product.EventTypeSkuSold), 1)
	})

	t.Run("insufficient availability writes nothing", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, _ := manufacture(t, f)

		_, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 11})
		var availErr *product.InsufficientAvailableError
		require.ErrorAs(t, err, &availErr)
		assert.Equal(t, 11, availErr.Requested)
		assert.Equal(t, 10, availErr.Available)

		records, findErr := f.records.FindBySource(ctx, finance.SourceTypeSale, skuID)
		require.NoError(t, findErr)
		assert.Empty(t, records)
	})

	t.Run("duplicate idempotency key is rejected", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		svc.SetIdempotencyStore(newFakeIdempotencyStore(), shared.IdempotencyConfig{TTL: time.Hour, Enabled: true})
		skuID, _ := manufacture(t, f)

		_, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 1, IdempotencyKey: "sale-42"})
		require.NoError(t, err)

		_, err = svc.Sell(ctx, skuID, SellRequest{Quantity: 1, IdempotencyKey: "sale-42"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_REQUEST", domainErr.Code)

		// A different key goes through
		_, err = svc.Sell(ctx, skuID, SellRequest{Quantity: 1, IdempotencyKey: "sale-43"})
		assert.NoError(t, err)
	})

	t.Run("failed attempt leaves the idempotency key usable", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		svc.SetIdempotencyStore(newFakeIdempotencyStore(), shared.IdempotencyConfig{TTL: time.Hour, Enabled: true})
		skuID, _ := manufacture(t, f)

		_, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 99, IdempotencyKey: "sale-99"})
		var availErr *product.InsufficientAvailableError
		require.ErrorAs(t, err, &availErr)

		// The corrected retry with the same key goes through
		snapshot, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 1, IdempotencyKey: "sale-99"})
		require.NoError(t, err)
		assert.Equal(t, 9, snapshot.AvailableQuantity)

		// Only the committed operation burns the key
		_, err = svc.Sell(ctx, skuID, SellRequest{Quantity: 1, IdempotencyKey: "sale-99"})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "DUPLICATE_REQUEST", domainErr.Code)
	})

	t.Run("withdrawn SKU cannot be sold", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, _ := manufacture(t, f)

		inactive := "inactive"
		_, err := svc.Control(ctx, skuID, ControlRequest{
			Action: ControlActionStatus,
			Status: &inactive,
			Reason: "seasonal withdrawal",
		})
		require.NoError(t, err)

		_, err = svc.Sell(ctx, skuID, SellRequest{Quantity: 1})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "SKU_NOT_SELLABLE", domainErr.Code)
	})

	t.Run("disabled idempotency ignores the key", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		svc.SetIdempotencyStore(newFakeIdempotencyStore(), shared.IdempotencyConfig{TTL: time.Hour, Enabled: false})
		skuID, _ := manufacture(t, f)

		_, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 1, IdempotencyKey: "k"})
		require.NoError(t, err)
		_, err = svc.Sell(ctx, skuID, SellRequest{Quantity: 1, IdempotencyKey: "k"})
		assert.NoError(t, err)
	})
}

func TestLifecycleService_Destroy(t *testing.T) {
	ctx := context.Background()

	t.Run("returns material at the recipe ratio and writes off the rest", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		result, err := svc.Destroy(ctx, skuID, DestroyRequest{
			Quantity:         2,
			Reason:           "damaged",
			ReturnToMaterial: true,
		})
		require.NoError(t, err)

		assert.Equal(t, 8, result.Sku.TotalQuantity)
		assert.Equal(t, 8, result.Sku.AvailableQuantity)
		require.Len(t, result.ReturnedMaterials, 1)
		assert.True(t, result.ReturnedMaterials[0].Quantity.Equal(d("6")))

		entries, err := f.ledger.FindByBatch(ctx, batchID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, material.UsageActionDestroy, entries[1].Action)
		assert.True(t, entries[1].QuantityDelta.Equal(d("-6")))

		// write-off: 4.5 x 2 - 0.5 x 6 = 6
		records, err := f.records.FindBySource(ctx, finance.SourceTypeDestruction, skuID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, finance.RecordKindExpense, records[0].Kind)
		assert.True(t, records[0].Amount.Equal(d("6")))

		assert.Len(t, f.publisher.GetEventsByType(product.EventTypeSkuDestroyed), 1)
	})

	t.Run("gift and lost never return material", func(t *testing.T) {
		for _, reason := range []string{"gift", "lost", "Gift", "LOST"} {
			f := newFixture()
			svc := newLifecycleService(f)
			skuID, batchID := manufacture(t, f)

			result, err := svc.Destroy(ctx, skuID, DestroyRequest{
				Quantity:         2,
				Reason:           reason,
				ReturnToMaterial: true,
			})
			require.NoError(t, err)
			assert.Empty(t, result.ReturnedMaterials)

			entries, findErr := f.ledger.FindByBatch(ctx, batchID)
			require.NoError(t, findErr)
			assert.Len(t, entries, 1)

			// Full recipe value is written off: 4.5 x 2
			records, findErr := f.records.FindBySource(ctx, finance.SourceTypeDestruction, skuID)
			require.NoError(t, findErr)
			require.Len(t, records, 1)
			assert.True(t, records[0].Amount.Equal(d("9")))
		}
	})

	t.Run("return flag off means no return regardless of reason", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		result, err := svc.Destroy(ctx, skuID, DestroyRequest{Quantity: 1, Reason: "damaged"})
		require.NoError(t, err)
		assert.Empty(t, result.ReturnedMaterials)

		entries, findErr := f.ledger.FindByBatch(ctx, batchID)
		require.NoError(t, findErr)
		assert.Len(t, entries, 1)
	})

	t.Run("rework returns only the selected signature batches", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		beads := seedBatch(t, f, "B-BEADS", "1000", "500")
		clasps := seedBatch(t, f, "B-CLASP", "100", "200")

		snapshot, err := newCompositionService(f).CreateSku(ctx, CreateSkuRequest{
			Code: "SKU-TWO", Name: "necklace",
			Materials: []MaterialInput{
				{BatchID: beads, QuantityPerUnit: d("10")},
				{BatchID: clasps, QuantityPerUnit: d("1")},
			},
			TotalUnits: 10,
		})
		require.NoError(t, err)

		outside := uuid.New()
		result, err := svc.Destroy(ctx, snapshot.ID, DestroyRequest{
			Quantity:         2,
			Reason:           "rework",
			ReturnToMaterial: true,
			SelectedBatches:  []uuid.UUID{clasps, outside},
		})
		require.NoError(t, err)

		require.Len(t, result.ReturnedMaterials, 1)
		assert.Equal(t, clasps, result.ReturnedMaterials[0].BatchID)
		assert.True(t, result.ReturnedMaterials[0].Quantity.Equal(d("2")))

		beadEntries, findErr := f.ledger.FindByBatch(ctx, beads)
		require.NoError(t, findErr)
		assert.Len(t, beadEntries, 1)
	})

	t.Run("custom return quantities override the recipe ratio", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		result, err := svc.Destroy(ctx, skuID, DestroyRequest{
			Quantity:         2,
			Reason:           "damaged",
			ReturnToMaterial: true,
			CustomReturns:    map[uuid.UUID]decimal.Decimal{batchID: d("1.5")},
		})
		require.NoError(t, err)

		require.Len(t, result.ReturnedMaterials, 1)
		assert.True(t, result.ReturnedMaterials[0].Quantity.Equal(d("1.5")))

		logs, findErr := f.audits.FindBySku(ctx, skuID)
		require.NoError(t, findErr)
		assert.Contains(t, logs[len(logs)-1].Detail, "custom override")
	})

	t.Run("no expense when returned value covers the recipe cost", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		// 10 pieces back at 0.5 = 5, above the 4.5 recipe cost of one unit
		_, err := svc.Destroy(ctx, skuID, DestroyRequest{
			Quantity:         1,
			Reason:           "damaged",
			ReturnToMaterial: true,
			CustomReturns:    map[uuid.UUID]decimal.Decimal{batchID: d("10")},
		})
		require.NoError(t, err)

		records, findErr := f.records.FindBySource(ctx, finance.SourceTypeDestruction, skuID)
		require.NoError(t, findErr)
		assert.Empty(t, records)
	})

	t.Run("returning to a depleted batch replenishes it", func(t *testing.T) {
		f := newFixture()
		batchID := seedBatch(t, f, "B-TIGHT", "30", "30")

		snapshot, err := newCompositionService(f).CreateSku(ctx, CreateSkuRequest{
			Code: "SKU-TIGHT", Name: "bracelet",
			Materials:  []MaterialInput{{BatchID: batchID, QuantityPerUnit: d("3")}},
			TotalUnits: 10,
		})
		require.NoError(t, err)
		f.publisher.Reset()

		svc := newLifecycleService(f)
		svc.SetEventPublisher(f.publisher)
		_, err = svc.Destroy(ctx, snapshot.ID, DestroyRequest{
			Quantity:         2,
			Reason:           "damaged",
			ReturnToMaterial: true,
		})
		require.NoError(t, err)

		batch, err := f.batches.FindByID(ctx, batchID)
		require.NoError(t, err)
		assert.Equal(t, material.BatchStatusActive, batch.Status)
		assert.Len(t, f.publisher.GetEventsByType(material.EventTypeBatchReplenished), 1)
	})

	t.Run("rejects an empty reason", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, _ := manufacture(t, f)

		_, err := svc.Destroy(ctx, skuID, DestroyRequest{Quantity: 1})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_REASON", domainErr.Code)
	})
}

func TestLifecycleService_Restock(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes at the recipe ratio and extends the cost rollup", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		snapshot, err := svc.Restock(ctx, skuID, RestockRequest{Quantity: 5})
		require.NoError(t, err)

		assert.Equal(t, 15, snapshot.TotalQuantity)
		assert.Equal(t, 15, snapshot.AvailableQuantity)
		// material +7.5 (0.5 x 15), labor +10 (2 x 5), craft +5 (1 x 5)
		assert.True(t, snapshot.MaterialCost.Equal(d("22.5")))
		assert.True(t, snapshot.LaborCost.Equal(d("30")))
		assert.True(t, snapshot.CraftCost.Equal(d("15")))
		assert.True(t, snapshot.TotalCost.Equal(d("67.5")))
		assert.True(t, snapshot.UnitPrice.Equal(d("4.5")))

		entries, err := f.ledger.FindByBatch(ctx, batchID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, material.UsageActionUse, entries[1].Action)
		assert.True(t, entries[1].QuantityDelta.Equal(d("15")))
		assert.True(t, entries[1].PerUnitQuantity.Equal(d("3")))

		logs, err := f.audits.FindBySku(ctx, skuID)
		require.NoError(t, err)
		assert.Equal(t, product.AuditOperationRestock, logs[len(logs)-1].Operation)

		assert.Len(t, f.publisher.GetEventsByType(product.EventTypeSkuRestocked), 1)
	})

	t.Run("shortfall fails the whole restock with no ledger write", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		// 70 pieces remain; 24 units need 72
		_, err := svc.Restock(ctx, skuID, RestockRequest{Quantity: 24})
		var stockErr *material.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		require.Len(t, stockErr.Shortfalls, 1)
		assert.True(t, stockErr.Shortfalls[0].Required.Equal(d("72")))
		assert.True(t, stockErr.Shortfalls[0].Available.Equal(d("70")))

		entries, findErr := f.ledger.FindByBatch(ctx, batchID)
		require.NoError(t, findErr)
		assert.Len(t, entries, 1)

		sku, findErr := f.skus.FindByID(ctx, skuID)
		require.NoError(t, findErr)
		assert.Equal(t, 10, sku.TotalQuantity)
	})

	t.Run("full consume and destroy round-trips the batch to its original quantity", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)

		_, err := svc.Destroy(ctx, skuID, DestroyRequest{
			Quantity:         10,
			Reason:           "damaged",
			ReturnToMaterial: true,
		})
		require.NoError(t, err)

		sum, err := f.ledger.SumDeltaByBatch(ctx, batchID)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})
}

func TestLifecycleService_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("restores both quantities and reverses income", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, batchID := manufacture(t, f)
		_, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 3})
		require.NoError(t, err)

		snapshot, err := svc.Refund(ctx, skuID, RefundRequest{Quantity: 2})
		require.NoError(t, err)

		assert.Equal(t, 9, snapshot.AvailableQuantity)
		assert.Equal(t, 12, snapshot.TotalQuantity)

		records, err := f.records.FindBySource(ctx, finance.SourceTypeRefund, skuID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, finance.RecordKindIncome, records[0].Kind)
		assert.True(t, records[0].Amount.Equal(d("-30")))

		// Refunds never touch the ledger
		entries, err := f.ledger.FindByBatch(ctx, batchID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		assert.Len(t, f.publisher.GetEventsByType(product.EventTypeSkuRefunded), 1)
	})

	t.Run("explicit amount overrides the default", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, _ := manufacture(t, f)
		_, err := svc.Sell(ctx, skuID, SellRequest{Quantity: 2})
		require.NoError(t, err)

		amount := d("25")
		_, err = svc.Refund(ctx, skuID, RefundRequest{Quantity: 2, Amount: &amount})
		require.NoError(t, err)

		records, findErr := f.records.FindBySource(ctx, finance.SourceTypeRefund, skuID)
		require.NoError(t, findErr)
		require.Len(t, records, 1)
		assert.True(t, records[0].Amount.Equal(d("-25")))
	})
}

func TestLifecycleService_Control(t *testing.T) {
	ctx := context.Background()

	t.Run("price action recomputes the margin from the recipe cost", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, _ := manufacture(t, f)

		price := d("18")
		snapshot, err := svc.Control(ctx, skuID, ControlRequest{
			Action: ControlActionPrice,
			Price:  &price,
			Reason: "market adjustment",
		})
		require.NoError(t, err)

		assert.True(t, snapshot.SellingPrice.Equal(d("18")))
		// (18 - 4.5) / 18
		assert.True(t, snapshot.ProfitMargin.Equal(d("0.75")))

		logs, err := f.audits.FindBySku(ctx, skuID)
		require.NoError(t, err)
		last := logs[len(logs)-1]
		assert.Equal(t, product.AuditOperationPriceChange, last.Operation)
		assert.Equal(t, "price 15 -> 18", last.Detail)
		assert.Equal(t, 0, last.QuantityDelta)

		assert.Len(t, f.publisher.GetEventsByType(product.EventTypeSkuPriceChanged), 1)
	})

	t.Run("status action is case-insensitive", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, _ := manufacture(t, f)

		status := "inactive"
		snapshot, err := svc.Control(ctx, skuID, ControlRequest{
			Action: ControlActionStatus,
			Status: &status,
			Reason: "withdrawn from sale",
		})
		require.NoError(t, err)
		assert.Equal(t, product.SkuStatusInactive, snapshot.Status)

		logs, findErr := f.audits.FindBySku(ctx, skuID)
		require.NoError(t, findErr)
		assert.Equal(t, product.AuditOperationStatusChange, logs[len(logs)-1].Operation)
	})

	t.Run("rejects malformed requests", func(t *testing.T) {
		f := newFixture()
		svc := newLifecycleService(f)
		skuID, _ := manufacture(t, f)

		var domainErr *shared.DomainError

		_, err := svc.Control(ctx, skuID, ControlRequest{Action: ControlActionPrice, Reason: "x"})
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)

		_, err = svc.Control(ctx, skuID, ControlRequest{Action: ControlActionStatus, Reason: "x"})
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)

		_, err = svc.Control(ctx, skuID, ControlRequest{Action: "rename", Reason: "x"})
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)

		price := d("18")
		_, err = svc.Control(ctx, skuID, ControlRequest{Action: ControlActionPrice, Price: &price})
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_REASON", domainErr.Code)
	})
}

func TestDestroyDetail_StableOverrideOrder(t *testing.T) {
	idA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	idB := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	req := DestroyRequest{
		CustomReturns: map[uuid.UUID]decimal.Decimal{
			idB: d("2"),
			idA: d("1"),
		},
	}

	want := fmt.Sprintf("custom override %s=1; custom override %s=2", idA, idB)
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, destroyDetail(nil, req))
	}
}
