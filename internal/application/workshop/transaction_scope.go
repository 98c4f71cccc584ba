package workshop

import (
	"context"

	"github.com/atelier/backend/internal/domain/finance"
	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
)

// TransactionScope provides transactional access to the engine repositories.
// Every multi-step mutation (composition, every lifecycle operation) runs
// inside Execute so that ledger writes, batch status flips, SKU updates,
// audit records and financial postings commit or roll back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all engine repositories within
// a transaction. All repositories returned share the same underlying database
// transaction.
type TransactionalRepositories interface {
	// Batches returns the purchase batch repository scoped to the current transaction
	Batches() material.BatchRepository
	// Ledger returns the append-only usage ledger repository scoped to the current transaction
	Ledger() material.UsageEntryRepository
	// Skus returns the SKU repository scoped to the current transaction
	Skus() product.SkuRepository
	// AuditLogs returns the append-only audit log repository scoped to the current transaction
	AuditLogs() product.AuditLogRepository
	// FinancialRecords returns the financial record repository scoped to the current transaction
	FinancialRecords() finance.RecordRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests running against in-memory repositories.
type NoOpTransactionScope struct {
	batchRepo  material.BatchRepository
	ledgerRepo material.UsageEntryRepository
	skuRepo    product.SkuRepository
	auditRepo  product.AuditLogRepository
	recordRepo finance.RecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	batchRepo material.BatchRepository,
	ledgerRepo material.UsageEntryRepository,
	skuRepo product.SkuRepository,
	auditRepo product.AuditLogRepository,
	recordRepo finance.RecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		batchRepo:  batchRepo,
		ledgerRepo: ledgerRepo,
		skuRepo:    skuRepo,
		auditRepo:  auditRepo,
		recordRepo: recordRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Batches returns the purchase batch repository
func (s *NoOpTransactionScope) Batches() material.BatchRepository {
	return s.batchRepo
}

// Ledger returns the usage ledger repository
func (s *NoOpTransactionScope) Ledger() material.UsageEntryRepository {
	return s.ledgerRepo
}

// Skus returns the SKU repository
func (s *NoOpTransactionScope) Skus() product.SkuRepository {
	return s.skuRepo
}

// AuditLogs returns the audit log repository
func (s *NoOpTransactionScope) AuditLogs() product.AuditLogRepository {
	return s.auditRepo
}

// FinancialRecords returns the financial record repository
func (s *NoOpTransactionScope) FinancialRecords() finance.RecordRepository {
	return s.recordRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
