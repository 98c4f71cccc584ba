package persistence

import (
	"context"
	"errors"

	"github.com/atelier/backend/internal/domain/product"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSkuRepository implements SkuRepository using GORM
type GormSkuRepository struct {
	db *gorm.DB
}

// NewGormSkuRepository creates a new GormSkuRepository
func NewGormSkuRepository(db *gorm.DB) *GormSkuRepository {
	return &GormSkuRepository{db: db}
}

// FindByID finds a SKU by its ID
func (r *GormSkuRepository) FindByID(ctx context.Context, id uuid.UUID) (*product.SKU, error) {
	var sku product.SKU
	if err := r.db.WithContext(ctx).First(&sku, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sku, nil
}

// FindByIDForUpdate finds a SKU and takes a row-level write lock.
// Must run inside a transaction; outside one the lock is meaningless.
func (r *GormSkuRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*product.SKU, error) {
	var sku product.SKU
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sku, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sku, nil
}

// FindByCode finds a SKU by its code
func (r *GormSkuRepository) FindByCode(ctx context.Context, code string) (*product.SKU, error) {
	var sku product.SKU
	if err := r.db.WithContext(ctx).First(&sku, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sku, nil
}

// FindBySignatureHash finds SKUs sharing an exact recipe
func (r *GormSkuRepository) FindBySignatureHash(ctx context.Context, hash string) ([]product.SKU, error) {
	var skus []product.SKU
	if err := r.db.WithContext(ctx).
		Where("signature_hash = ?", hash).
		Order("created_at ASC").
		Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

// FindAll lists SKUs with filtering and pagination
func (r *GormSkuRepository) FindAll(ctx context.Context, filter shared.Filter) ([]product.SKU, error) {
	var skus []product.SKU
	query := r.applyFilter(r.db.WithContext(ctx).Model(&product.SKU{}), filter)
	if err := query.Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

// Count counts SKUs matching the filter
func (r *GormSkuRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&product.SKU{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a SKU
func (r *GormSkuRepository) Save(ctx context.Context, sku *product.SKU) error {
	return r.db.WithContext(ctx).Save(sku).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormSkuRepository) SaveWithLock(ctx context.Context, sku *product.SKU) error {
	result := r.db.WithContext(ctx).
		Model(sku).
		Where("id = ? AND version = ?", sku.ID, sku.Version-1).
		Updates(map[string]interface{}{
			"total_quantity":     sku.TotalQuantity,
			"available_quantity": sku.AvailableQuantity,
			"material_cost":      sku.MaterialCost,
			"labor_cost":         sku.LaborCost,
			"craft_cost":         sku.CraftCost,
			"total_cost":         sku.TotalCost,
			"unit_price":         sku.UnitPrice,
			"selling_price":      sku.SellingPrice,
			"profit_margin":      sku.ProfitMargin,
			"status":             sku.Status,
			"version":            sku.Version,
			"updated_at":         sku.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyConditions applies the filter's search and field conditions without
// pagination, shared by FindAll and Count
func (r *GormSkuRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", search, search)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "signature_hash":
			query = query.Where("signature_hash = ?", value)
		case "in_stock":
			if value == true {
				query = query.Where("available_quantity > 0")
			}
		}
	}

	return query
}

// applyFilter applies filter conditions, ordering and pagination to the query
func (r *GormSkuRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, SkuSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	return query
}

// Ensure GormSkuRepository implements SkuRepository
var _ product.SkuRepository = (*GormSkuRepository)(nil)
