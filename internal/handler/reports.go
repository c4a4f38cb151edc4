package handler

import (
	"net/http"

	"backoffice/internal/dto"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// Analytics godoc
// @Summary      Sales analytics
// @Description  Revenue, payments and breakdowns over completed sales. Defaults to the last month.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "YYYY-MM-DD"
// @Param        end_date   query string false "YYYY-MM-DD"
// @Success      200 {object} dto.SalesAnalyticsResponse
// @Router       /v1/sales/analytics [get]
func (h *ReportsHandler) Analytics(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var filter dto.AnalyticsFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Analytics(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MonthlyPerformance godoc
// @Summary      Monthly performance
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        year query int false "Calendar year (default current)"
// @Success      200 {object} dto.MonthlyPerformanceResponse
// @Router       /v1/sales/monthly-performance [get]
func (h *ReportsHandler) MonthlyPerformance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var filter dto.MonthlyFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.MonthlyPerformance(c.Request.Context(), actor, filter.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
