package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"backoffice/internal/apierror"
	"backoffice/internal/infra"
	"backoffice/internal/service"
	"backoffice/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// ReceiptsHandler serves rendered receipt PDFs and the failed-render queue.
type ReceiptsHandler struct {
	sales       service.SaleService
	rdb         *redis.Client
	storagePath string
}

func NewReceiptsHandler(sales service.SaleService, rdb *redis.Client, storagePath string) *ReceiptsHandler {
	return &ReceiptsHandler{sales: sales, rdb: rdb, storagePath: storagePath}
}

// Download godoc
// @Summary      Download receipt PDF
// @Description  Receipts are rendered asynchronously after a sale is created or cancelled.
// @Tags         sales
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path string true "Sale UUID"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id}/receipt [get]
func (h *ReceiptsHandler) Download(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	sale, err := h.sales.GetSale(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	name := infra.ReceiptFileName(sale.SaleNumber)
	path := filepath.Join(h.storagePath, name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, apierror.WithCode("not_found", "receipt not rendered yet"))
		return
	}
	c.FileAttachment(path, name)
}

// DeadLetters godoc
// @Summary      Failed receipt jobs
// @Description  Most recent receipt jobs that exhausted their retries, limited to the caller's sales.
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Entries to scan (default 50, max 500)"
// @Success      200   {array} worker.DLQEntry
// @Router       /v1/receipts/dead-letters [get]
func (h *ReceiptsHandler) DeadLetters(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if h.rdb == nil {
		c.JSON(http.StatusOK, []worker.DLQEntry{})
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	out, err := worker.DeadLettersForSeller(c.Request.Context(), h.rdb, worker.QueueReceipts, actor.OwnerID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
