package handler

import (
	"net/http"
	"strings"

	"backoffice/internal/dto"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry POST /v1/sales without recording the sale twice.
const IdempotencyKeyHeader = "Idempotency-Key"

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

// Create godoc
// @Summary      Record a sale
// @Description  Decrements stock for every line and stores the sale atomically. Replaying the same
// @Description  Idempotency-Key returns the original sale.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string                 false "Client retry key"
// @Param        body            body   dto.CreateSaleRequest  true  "Sale"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.StockError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	resp, err := h.svc.CreateSale(c.Request.Context(), actor, req, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        status          query string false "completed | cancelled"
// @Param        payment_status  query string false "paid | partial | unpaid"
// @Param        start_date      query string false "YYYY-MM-DD"
// @Param        end_date        query string false "YYYY-MM-DD, inclusive"
// @Param        sort_by         query string false "sale_date | total_amount | sale_number | created_at; prefix - for descending (default -sale_date)"
// @Param        search          query string false "Sale number, invoice or customer"
// @Param        include_deleted query bool   false "Include cancelled sales"
// @Param        page            query int    false "Page (default 1)"
// @Param        limit           query int    false "Page size (default 20)"
// @Success      200  {object} dto.SaleListResponse
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get sale
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "Sale UUID"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update sale details
// @Description  Only customer and notes can change; items, amounts and payments cannot.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Sale UUID"
// @Param        body body dto.UpdateSaleRequest true "Fields to change"
// @Success      200  {object} dto.SaleResponse
// @Router       /v1/sales/{id} [put]
func (h *SalesHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateSale(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddPayment godoc
// @Summary      Record a payment
// @Description  Appends to the payment ledger. The amount may not exceed the outstanding balance.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                true "Sale UUID"
// @Param        body body dto.AddPaymentRequest true "Payment"
// @Success      200  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id}/payments [post]
func (h *SalesHandler) AddPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.AddPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddPayment(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Cancel a sale
// @Description  Restores the sold quantities and marks the sale cancelled.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Sale UUID"
// @Param        body body dto.CancelSaleRequest  true "Reason"
// @Success      200  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id}/cancel [post]
func (h *SalesHandler) Cancel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.CancelSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CancelSale(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
