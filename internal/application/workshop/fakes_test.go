package workshop

import (
	"context"
	"sync"
	"time"

	"github.com/atelier/backend/internal/domain/finance"
	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repositories backing the service tests. They store value copies so
// that a failed operation observed through a fresh Find reflects only what was
// explicitly saved, mirroring transactional reads.

type fakeBatchRepo struct {
	mu      sync.Mutex
	order   []uuid.UUID
	batches map[uuid.UUID]material.Batch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]material.Batch)}
}

func (r *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*material.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &b, nil
}

func (r *fakeBatchRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*material.Batch, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBatchRepo) FindByCode(_ context.Context, code string) (*material.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.Code == code {
			found := b
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeBatchRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]material.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]material.Batch, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.batches[id]; ok {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *fakeBatchRepo) FindAll(_ context.Context, filter shared.Filter) ([]material.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]material.Batch, 0, len(r.order))
	for _, id := range r.order {
		b := r.batches[id]
		if kind, ok := filter.Filters["kind"]; ok && string(b.Kind) != kind {
			continue
		}
		if status, ok := filter.Filters["status"]; ok && string(b.Status) != status {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (r *fakeBatchRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	batches, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(batches)), nil
}

func (r *fakeBatchRepo) Save(_ context.Context, batch *material.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[batch.ID]; !ok {
		r.order = append(r.order, batch.ID)
	}
	r.batches[batch.ID] = *batch
	return nil
}

func (r *fakeBatchRepo) SaveWithLock(ctx context.Context, batch *material.Batch) error {
	return r.Save(ctx, batch)
}

type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries []material.UsageEntry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{}
}

func (r *fakeLedgerRepo) Append(_ context.Context, entry *material.UsageEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLedgerRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]material.UsageEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]material.UsageEntry, 0)
	for _, e := range r.entries {
		if e.BatchID == batchID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeLedgerRepo) FindByBatchAndSku(_ context.Context, batchID, skuID uuid.UUID) ([]material.UsageEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]material.UsageEntry, 0)
	for _, e := range r.entries {
		if e.BatchID == batchID && e.SkuID != nil && *e.SkuID == skuID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeLedgerRepo) FindBySku(_ context.Context, skuID uuid.UUID) ([]material.UsageEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]material.UsageEntry, 0)
	for _, e := range r.entries {
		if e.SkuID != nil && *e.SkuID == skuID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeLedgerRepo) SumDeltaByBatch(_ context.Context, batchID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, e := range r.entries {
		if e.BatchID == batchID {
			sum = sum.Add(e.QuantityDelta)
		}
	}
	return sum, nil
}

type fakeSkuRepo struct {
	mu    sync.Mutex
	order []uuid.UUID
	skus  map[uuid.UUID]product.SKU
}

func newFakeSkuRepo() *fakeSkuRepo {
	return &fakeSkuRepo{skus: make(map[uuid.UUID]product.SKU)}
}

func (r *fakeSkuRepo) FindByID(_ context.Context, id uuid.UUID) (*product.SKU, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.skus[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSkuRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*product.SKU, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSkuRepo) FindByCode(_ context.Context, code string) (*product.SKU, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.skus {
		if s.Code == code {
			found := s
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSkuRepo) FindBySignatureHash(_ context.Context, hash string) ([]product.SKU, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]product.SKU, 0)
	for _, id := range r.order {
		if s := r.skus[id]; s.SignatureHash == hash {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *fakeSkuRepo) FindAll(_ context.Context, filter shared.Filter) ([]product.SKU, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]product.SKU, 0, len(r.order))
	for _, id := range r.order {
		s := r.skus[id]
		if status, ok := filter.Filters["status"]; ok && string(s.Status) != status {
			continue
		}
		if hash, ok := filter.Filters["signature_hash"]; ok && s.SignatureHash != hash {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

func (r *fakeSkuRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	skus, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(skus)), nil
}

func (r *fakeSkuRepo) Save(_ context.Context, sku *product.SKU) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skus[sku.ID]; !ok {
		r.order = append(r.order, sku.ID)
	}
	r.skus[sku.ID] = *sku
	return nil
}

func (r *fakeSkuRepo) SaveWithLock(ctx context.Context, sku *product.SKU) error {
	return r.Save(ctx, sku)
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []product.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Append(_ context.Context, log *product.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeAuditRepo) FindBySku(_ context.Context, skuID uuid.UUID) ([]product.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]product.AuditLog, 0)
	for _, l := range r.logs {
		if l.SkuID == skuID {
			result = append(result, l)
		}
	}
	return result, nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records []finance.Record
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{}
}

func (r *fakeRecordRepo) Append(_ context.Context, record *finance.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeRecordRepo) FindBySource(_ context.Context, sourceType finance.SourceType, sourceID uuid.UUID) ([]finance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]finance.Record, 0)
	for _, rec := range r.records {
		if rec.SourceType == sourceType && rec.SourceID == sourceID {
			result = append(result, rec)
		}
	}
	return result, nil
}

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (p *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *MockEventPublisher) GetEvents() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent{}, p.events...)
}

func (p *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	matched := make([]shared.DomainEvent, 0)
	for _, e := range p.events {
		if e.EventType() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func (p *MockEventPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }

// fixture wires the fakes into a transaction scope for service tests
type fixture struct {
	batches   *fakeBatchRepo
	ledger    *fakeLedgerRepo
	skus      *fakeSkuRepo
	audits    *fakeAuditRepo
	records   *fakeRecordRepo
	scope     *NoOpTransactionScope
	publisher *MockEventPublisher
}

func newFixture() *fixture {
	f := &fixture{
		batches:   newFakeBatchRepo(),
		ledger:    newFakeLedgerRepo(),
		skus:      newFakeSkuRepo(),
		audits:    newFakeAuditRepo(),
		records:   newFakeRecordRepo(),
		publisher: NewMockEventPublisher(),
	}
	f.scope = NewNoOpTransactionScope(f.batches, f.ledger, f.skus, f.audits, f.records)
	return f
}

var (
	_ material.BatchRepository      = (*fakeBatchRepo)(nil)
	_ material.UsageEntryRepository = (*fakeLedgerRepo)(nil)
	_ product.SkuRepository         = (*fakeSkuRepo)(nil)
	_ product.AuditLogRepository    = (*fakeAuditRepo)(nil)
	_ finance.RecordRepository      = (*fakeRecordRepo)(nil)
	_ shared.EventPublisher         = (*MockEventPublisher)(nil)
	_ shared.IdempotencyStore       = (*fakeIdempotencyStore)(nil)
)
