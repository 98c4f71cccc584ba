package persistence

import (
	"context"

	"github.com/atelier/backend/internal/application/workshop"
	"github.com/atelier/backend/internal/domain/finance"
	"github.com/atelier/backend/internal/domain/material"
	"github.com/atelier/backend/internal/domain/product"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos workshop.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Batches returns the purchase batch repository scoped to the current transaction
func (r *gormTransactionalRepositories) Batches() material.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// Ledger returns the usage ledger repository scoped to the current transaction
func (r *gormTransactionalRepositories) Ledger() material.UsageEntryRepository {
	return NewGormUsageEntryRepository(r.tx)
}

// Skus returns the SKU repository scoped to the current transaction
func (r *gormTransactionalRepositories) Skus() product.SkuRepository {
	return NewGormSkuRepository(r.tx)
}

// AuditLogs returns the audit log repository scoped to the current transaction
func (r *gormTransactionalRepositories) AuditLogs() product.AuditLogRepository {
	return NewGormAuditLogRepository(r.tx)
}

// FinancialRecords returns the financial record repository scoped to the current transaction
func (r *gormTransactionalRepositories) FinancialRecords() finance.RecordRepository {
	return NewGormFinancialRecordRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ workshop.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ workshop.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
