package handler

import (
	workshopapp "github.com/atelier/backend/internal/application/workshop"
	"github.com/atelier/backend/internal/domain/shared"
	"github.com/atelier/backend/internal/interfaces/http/dto"
	"github.com/atelier/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BatchHandler handles raw-material batch API endpoints
type BatchHandler struct {
	BaseHandler
	stockService *workshopapp.StockService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(stockService *workshopapp.StockService) *BatchHandler {
	return &BatchHandler{
		stockService: stockService,
	}
}

// RegisterRoutes registers batch routes on the given router group
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/batches")
	{
		batches.POST("", h.Register)
		batches.GET("", h.List)
		batches.GET("/low-stock", h.ListLowStock)
		batches.GET("/code/:code", h.GetByCode)
		batches.GET("/:id", h.Get)
		batches.GET("/:id/stock", h.GetStockLevel)
		batches.GET("/:id/ledger", h.GetUsageHistory)
	}
}

// Register creates a new raw-material purchase batch
func (h *BatchHandler) Register(c *gin.Context) {
	var req workshopapp.RegisterBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	batch, err := h.stockService.RegisterBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// Get returns a batch by ID
func (h *BatchHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	batch, err := h.stockService.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// GetByCode returns a batch by its human-readable code
func (h *BatchHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Batch code is required")
		return
	}

	batch, err := h.stockService.GetBatchByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// List returns batches with pagination and optional filters
func (h *BatchHandler) List(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	result, err := h.stockService.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetStockLevel returns the ledger-derived stock position of a batch
func (h *BatchHandler) GetStockLevel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	level, err := h.stockService.GetStockLevel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, level)
}

// ListLowStock returns batches at or below their alert threshold
func (h *BatchHandler) ListLowStock(c *gin.Context) {
	filter, ok := h.bindListFilter(c)
	if !ok {
		return
	}

	levels, err := h.stockService.ListLowStock(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, levels)
}

// GetUsageHistory returns the full usage ledger of a batch, oldest first
func (h *BatchHandler) GetUsageHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	entries, err := h.stockService.GetUsageHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// bindListFilter binds common list query parameters plus batch filters
func (h *BatchHandler) bindListFilter(c *gin.Context) (shared.Filter, bool) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return shared.Filter{}, false
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  make(map[string]interface{}),
	}
	if kind := c.Query("kind"); kind != "" {
		filter.Filters["kind"] = kind
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	return filter, true
}
