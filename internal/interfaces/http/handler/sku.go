package handler

import (
	workshopapp "github.com/atelier/backend/internal/application/workshop"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/atelier/backend/internal/interfaces/http/dto"
	"github.com/atelier/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client-chosen key that makes lifecycle
// mutations safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// SkuHandler handles SKU composition, lifecycle and query API endpoints
type SkuHandler struct {
	BaseHandler
	compositionService *workshopapp.CompositionService
	lifecycleService   *workshopapp.LifecycleService
	queryService       *workshopapp.SkuQueryService
}

// NewSkuHandler creates a new SkuHandler
func NewSkuHandler(
	compositionService *workshopapp.CompositionService,
	lifecycleService *workshopapp.LifecycleService,
	queryService *workshopapp.SkuQueryService,
) *SkuHandler {
	return &SkuHandler{
		compositionService: compositionService,
		lifecycleService:   lifecycleService,
		queryService:       queryService,
	}
}

// RegisterRoutes registers SKU routes on the given router group
func (h *SkuHandler) RegisterRoutes(rg *gin.RouterGroup) {
	skus := rg.Group("/skus")
	{
		skus.POST("", h.Create)
		skus.GET("", h.List)
		skus.GET("/code/:code", h.GetByCode)
		skus.GET("/:id", h.Get)
		skus.GET("/:id/recipe", h.GetRecipe)
		skus.GET("/:id/siblings", h.GetSiblings)
		skus.GET("/:id/audit", h.GetAuditTrail)
		skus.GET("/:id/trace", h.GetMaterialTrace)
		skus.POST("/:id/sell", h.Sell)
		skus.POST("/:id/destroy", h.Destroy)
		skus.POST("/:id/restock", h.Restock)
		skus.POST("/:id/refund", h.Refund)
		skus.POST("/:id/control", h.Control)
	}
}

// Create manufactures a new SKU from raw-material batches
func (h *SkuHandler) Create(c *gin.Context) {
	var req workshopapp.CreateSkuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sku, err := h.compositionService.CreateSku(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sku)
}

// Get returns a SKU by ID
func (h *SkuHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	sku, err := h.queryService.GetSku(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sku)
}

// GetByCode returns a SKU by its code
func (h *SkuHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "SKU code is required")
		return
	}

	sku, err := h.queryService.GetSkuByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sku)
}

// List returns SKUs with pagination and optional filters
func (h *SkuHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  make(map[string]interface{}),
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if hash := c.Query("signature_hash"); hash != "" {
		filter.Filters["signature_hash"] = hash
	}
	if c.Query("in_stock") == "true" {
		filter.Filters["in_stock"] = true
	}

	result, err := h.queryService.ListSkus(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetRecipe returns the normalized material signature of a SKU
func (h *SkuHandler) GetRecipe(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	recipe, err := h.queryService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"sku_id":         id,
		"signature":      recipe,
		"signature_hash": recipe.Hash(),
	})
}

// GetSiblings returns all SKUs sharing this SKU's exact recipe
func (h *SkuHandler) GetSiblings(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	recipe, err := h.queryService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	siblings, err := h.queryService.FindBySignature(c.Request.Context(), recipe)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, siblings)
}

// GetAuditTrail returns the append-only lifecycle history of a SKU
func (h *SkuHandler) GetAuditTrail(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	logs, err := h.queryService.GetAuditTrail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, logs)
}

// GetMaterialTrace returns every usage ledger entry referencing a SKU
func (h *SkuHandler) GetMaterialTrace(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entries, err := h.queryService.GetMaterialTrace(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// Sell sells units of a SKU
func (h *SkuHandler) Sell(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req workshopapp.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	sku, err := h.lifecycleService.Sell(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sku)
}

// Destroy destroys units of a SKU, optionally returning material to batches
func (h *SkuHandler) Destroy(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req workshopapp.DestroyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	result, err := h.lifecycleService.Destroy(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Restock manufactures additional units from the SKU's original recipe
func (h *SkuHandler) Restock(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req workshopapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	sku, err := h.lifecycleService.Restock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sku)
}

// Refund takes sold units back into available stock
func (h *SkuHandler) Refund(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req workshopapp.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	sku, err := h.lifecycleService.Refund(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sku)
}

// Control adjusts the selling price or saleability status of a SKU
func (h *SkuHandler) Control(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req workshopapp.ControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	sku, err := h.lifecycleService.Control(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sku)
}

// parseID parses the :id path parameter as a UUID
func (h *SkuHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid SKU ID")
		return uuid.Nil, false
	}
	return id, true
}
