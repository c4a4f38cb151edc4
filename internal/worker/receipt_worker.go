package worker

// receipt_worker.go
// Renders PDF receipts for jobs on QueueReceipts. Jobs are enqueued after
// CreateSale and CancelSale commit; a cancelled sale is re-rendered with a stamp.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backoffice/internal/infra"
	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipts.
type ReceiptJobPayload struct {
	SaleID   string `json:"sale_id"`
	SellerID string `json:"seller_id"`
}

// SaleLoader loads a sale with its items and payments.
type SaleLoader interface {
	FindByID(ctx context.Context, sellerID, id uuid.UUID) (*model.Sale, error)
}

// RenderFunc writes a receipt file and returns its path.
type RenderFunc func(sale *model.Sale, businessName, storagePath string) (string, error)

type ReceiptWorker struct {
	sales        SaleLoader
	render       RenderFunc
	breaker      *infra.Breaker
	businessName string
	storagePath  string
}

// NewReceiptWorker builds the receipt processor. breaker may be nil.
func NewReceiptWorker(sales SaleLoader, businessName, storagePath string, breaker *infra.Breaker) *ReceiptWorker {
	return &ReceiptWorker{
		sales:        sales,
		render:       infra.GenerateReceiptPDF,
		breaker:      breaker,
		businessName: businessName,
		storagePath:  storagePath,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload
//  2. Load the sale (missing sales are not retried)
//  3. Render the PDF through the breaker with exponential backoff
//
// Bad payloads and missing sales are wrapped in ErrPermanent so they are never replayed.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("receipt_worker: invalid payload: %w: %v", ErrPermanent, err)
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		return fmt.Errorf("receipt_worker: %w: invalid sale_id %q", ErrPermanent, payload.SaleID)
	}
	sellerID, err := uuid.Parse(payload.SellerID)
	if err != nil {
		return fmt.Errorf("receipt_worker: %w: invalid seller_id %q", ErrPermanent, payload.SellerID)
	}

	var sale *model.Sale
	err = withRetry(ctx, maxAttempts, func(attempt int) error {
		var err error
		sale, err = w.sales.FindByID(ctx, sellerID, saleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("receipt_worker: load sale: %w", err)
	}
	if sale == nil || sale.ID == uuid.Nil {
		return fmt.Errorf("receipt_worker: %w: sale %s not found", ErrPermanent, saleID)
	}
	if w.breaker.State() == infra.BreakerOpen {
		return fmt.Errorf("receipt_worker: render: %w", infra.ErrBreakerOpen)
	}

	var path string
	err = withRetry(ctx, maxAttempts, func(attempt int) error {
		err := w.breaker.Execute(func() error {
			var err error
			path, err = w.render(sale, w.businessName, w.storagePath)
			return err
		})
		if err != nil {
			log.Warn().Err(err).
				Int("attempt", attempt+1).
				Str("sale_id", payload.SaleID).
				Msg("receipt_worker: render failed, retrying")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("receipt_worker: render: %w", err)
	}

	log.Info().Str("pdf", path).Str("sale_id", payload.SaleID).Msg("receipt_worker: receipt generated")
	return nil
}
