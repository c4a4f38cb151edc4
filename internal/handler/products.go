package handler

import (
	"context"
	"net/http"
	"strconv"

	"backoffice/internal/dto"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// Create godoc
// @Summary      Create product
// @Description  Adds a product to the caller's catalog. A positive initial quantity is recorded in the stock history.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductRequest true "Product"
// @Success      201  {object} dto.ProductResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        search   query string false "Name or product code"
// @Param        category query string false "Category"
// @Param        status   query string false "in_stock | low_stock | out_of_stock"
// @Param        active   query string false "true (default) | false | all"
// @Param        page     query int    false "Page (default 1)"
// @Param        limit    query int    false "Page size (default 20)"
// @Success      200  {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update product
// @Description  Updates descriptive and pricing fields. Quantity changes go through the stock endpoints.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Product UUID"
// @Param        body body dto.UpdateProductRequest true "Fields to change"
// @Success      200  {object} dto.ProductResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/products/{id} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary      Deactivate product
// @Description  Soft delete: the product stops being sellable but keeps its history.
// @Tags         products
// @Security     BearerAuth
// @Param        id  path string true "Product UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [delete]
func (h *ProductsHandler) Deactivate(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddStock godoc
// @Summary      Add stock
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "Product UUID"
// @Param        body body dto.StockAdjustmentRequest true "Quantity and reason"
// @Success      200  {object} dto.ProductResponse
// @Router       /v1/products/{id}/stock/add [post]
func (h *ProductsHandler) AddStock(c *gin.Context) {
	h.adjustStock(c, h.svc.AddStock)
}

// RemoveStock godoc
// @Summary      Remove stock
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "Product UUID"
// @Param        body body dto.StockAdjustmentRequest true "Quantity and reason"
// @Success      200  {object} dto.ProductResponse
// @Failure      400  {object} apierror.StockError
// @Router       /v1/products/{id}/stock/remove [post]
func (h *ProductsHandler) RemoveStock(c *gin.Context) {
	h.adjustStock(c, h.svc.RemoveStock)
}

type stockAdjustFunc func(ctx context.Context, actor service.Actor, id uuid.UUID, req dto.StockAdjustmentRequest) (*dto.ProductResponse, error)

func (h *ProductsHandler) adjustStock(c *gin.Context, fn stockAdjustFunc) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.StockAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := fn(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StockHistory godoc
// @Summary      Stock history
// @Description  Append-only ledger of quantity changes, newest first.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Product UUID"
// @Param        type  query string false "added | removed | sold | returned | adjusted"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Page size (default 50)"
// @Success      200   {object} dto.StockHistoryResponse
// @Router       /v1/products/{id}/stock-history [get]
func (h *ProductsHandler) StockHistory(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var filter dto.StockHistoryFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.StockHistory(c.Request.Context(), actor, id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStock godoc
// @Summary      Low stock products
// @Description  Active products with 0 < quantity <= min_stock_level, lowest first.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProductResponse
// @Router       /v1/products/low-stock [get]
func (h *ProductsHandler) LowStock(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	resp, err := h.svc.LowStock(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TopSelling godoc
// @Summary      Top selling products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "How many (default 10)"
// @Success      200   {array} dto.ProductResponse
// @Router       /v1/products/top-selling [get]
func (h *ProductsHandler) TopSelling(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	resp, err := h.svc.TopSelling(c.Request.Context(), actor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
