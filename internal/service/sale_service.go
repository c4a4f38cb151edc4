package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor identifies who performs an operation. OwnerID is the seller scope every query
// is filtered by; UserID is recorded as the performer on ledger rows.
type Actor struct {
	UserID  uuid.UUID
	OwnerID uuid.UUID
}

// ReceiptQueue accepts receipt jobs after a sale write has committed.
type ReceiptQueue interface {
	EnqueueReceipt(ctx context.Context, sellerID, saleID uuid.UUID) error
}

type SaleService interface {
	CreateSale(ctx context.Context, actor Actor, req dto.CreateSaleRequest, idempotencyKey string) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, actor Actor, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, actor Actor, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	UpdateSale(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error)
	AddPayment(ctx context.Context, actor Actor, id uuid.UUID, req dto.AddPaymentRequest) (*dto.SaleResponse, error)
	CancelSale(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*dto.SaleResponse, error)
}

type saleService struct {
	tx       repository.TxManager
	sales    repository.SaleRepository
	products repository.ProductRepository
	history  repository.StockHistoryRepository
	receipts ReceiptQueue
	cache    *ReportCache
	now      func() time.Time
}

func NewSaleService(
	tx repository.TxManager,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	history repository.StockHistoryRepository,
	receipts ReceiptQueue,
	cache *ReportCache,
) SaleService {
	return &saleService{
		tx:       tx,
		sales:    sales,
		products: products,
		history:  history,
		receipts: receipts,
		cache:    cache,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ── CreateSale ────────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock every referenced active product (ascending id) and check stock per line
//   2. Build lines with name/code snapshots
//   3. Compute totals, record the initial payment
//   4. Guarded decrement + analytics + "sold" ledger row per line
//   5. Insert the sale
// After commit: enqueue receipt, invalidate cached reports.

type saleLine struct {
	productID uuid.UUID
	quantity  int
	unitPrice *decimal.Decimal
	discount  decimal.Decimal
	tax       decimal.Decimal
}

func (s *saleService) CreateSale(ctx context.Context, actor Actor, req dto.CreateSaleRequest, idempotencyKey string) (*dto.SaleResponse, error) {
	lines, err := parseSaleLines(req)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		existing, err := s.sales.FindByIdempotencyKey(ctx, actor.OwnerID, idempotencyKey)
		if err == nil {
			return saleToResponse(existing), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	now := s.now()
	sale := &model.Sale{
		ID:              uuid.New(),
		SellerID:        actor.OwnerID,
		Customer:        customerFromRequest(req.Customer),
		Discount:        req.Discount,
		DiscountType:    orDefault(req.DiscountType, model.DiscountFixed),
		Tax:             req.Tax,
		ShippingFee:     req.ShippingFee,
		PaymentMethod:   orDefault(req.PaymentMethod, "cash"),
		Status:          model.SaleCompleted,
		Channel:         orDefault(req.Channel, "in_store"),
		Notes:           req.Notes,
		InvoiceIssuedAt: now,
		Version:         1,
		SaleDate:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	sale.SaleNumber = newSaleNumber(now)
	sale.InvoiceNumber = "INV-" + sale.SaleNumber
	if idempotencyKey != "" {
		key := idempotencyKey
		sale.IdempotencyKey = &key
	}

	txErr := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.products.LockActiveTx(tx, actor.OwnerID, distinctSortedIDs(lines))
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*model.Product, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}

		requested := make(map[uuid.UUID]int, len(lines))
		for _, ln := range lines {
			p, ok := byID[ln.productID]
			if !ok {
				return notFoundf("product %s not found", ln.productID)
			}
			requested[p.ID] += ln.quantity
			if requested[p.ID] > p.Quantity {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   p.Quantity,
					Requested:   requested[p.ID],
				}
			}
		}

		for i, ln := range lines {
			p := byID[ln.productID]
			unitPrice := p.UnitPrice
			if ln.unitPrice != nil {
				unitPrice = *ln.unitPrice
			}
			item := model.SaleItem{
				ID:          uuid.New(),
				SaleID:      sale.ID,
				Position:    i,
				ProductID:   p.ID,
				ProductName: p.Name,
				ProductCode: p.ProductCode,
				Quantity:    ln.quantity,
				UnitPrice:   unitPrice,
				Discount:    ln.discount,
				Tax:         ln.tax,
				Subtotal:    LineSubtotal(ln.quantity, unitPrice, ln.discount, ln.tax),
			}
			if item.Subtotal.IsNegative() {
				return validationf("item %d: discount exceeds the line amount", i+1)
			}
			sale.Items = append(sale.Items, item)
		}

		applyTotals(sale)
		if sale.TotalAmount.IsNegative() {
			return validationf("discount exceeds the sale amount")
		}
		paid := initialAmountPaid(req.AmountPaid, sale.TotalAmount)
		if paid.GreaterThan(sale.TotalAmount) {
			return validationf("amount paid %s exceeds total %s", paid.StringFixed(2), sale.TotalAmount.StringFixed(2))
		}
		if paid.IsPositive() {
			sale.Payments = append(sale.Payments, model.SalePayment{
				ID:        uuid.New(),
				SaleID:    sale.ID,
				Amount:    paid,
				Method:    sale.PaymentMethod,
				CreatedAt: now,
			})
		}
		applyTotals(sale)

		for _, item := range sale.Items {
			p := byID[item.ProductID]
			if err := s.products.DecrementStockTx(tx, p.ID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockGuard) {
					return &InsufficientStockError{
						ProductID:   p.ID,
						ProductName: p.Name,
						Available:   p.Quantity,
						Requested:   item.Quantity,
					}
				}
				return err
			}
			previous := p.Quantity
			p.Quantity -= item.Quantity
			p.RefreshStatus()
			p.RecordSale(item.Quantity, item.UnitPrice, now)
			if err := s.products.SaveDerivedTx(tx, p); err != nil {
				return err
			}
			saleID := sale.ID
			if err := s.history.CreateTx(tx, &model.StockEntry{
				ID:               uuid.New(),
				ProductID:        p.ID,
				Type:             model.StockSold,
				Quantity:         item.Quantity,
				PreviousQuantity: previous,
				NewQuantity:      p.Quantity,
				Reason:           fmt.Sprintf("Sold %d unit(s) at %s each", item.Quantity, item.UnitPrice.StringFixed(2)),
				PerformedBy:      actor.UserID,
				SaleID:           &saleID,
				CreatedAt:        now,
			}); err != nil {
				return err
			}
		}

		return s.sales.CreateTx(tx, sale)
	})
	if txErr != nil {
		return nil, translateRepoErr(txErr, "sale")
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("sale_number", sale.SaleNumber).
		Str("seller_id", sale.SellerID.String()).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Msg("sale: created")

	s.afterCommit(ctx, sale)
	return saleToResponse(sale), nil
}

// initialAmountPaid applies the checkout policy: a sale recorded without an explicit
// amount is treated as paid in full.
func initialAmountPaid(requested *decimal.Decimal, total decimal.Decimal) decimal.Decimal {
	if requested == nil {
		return total
	}
	return *requested
}

func parseSaleLines(req dto.CreateSaleRequest) ([]saleLine, error) {
	if len(req.Items) == 0 {
		return nil, validationf("a sale needs at least one item")
	}
	if req.Discount.IsNegative() || req.Tax.IsNegative() || req.ShippingFee.IsNegative() {
		return nil, validationf("discount, tax and shipping fee must not be negative")
	}
	switch req.DiscountType {
	case "", model.DiscountFixed:
	case model.DiscountPercentage:
		if req.Discount.GreaterThan(hundred) {
			return nil, validationf("percentage discount must not exceed 100")
		}
	default:
		return nil, validationf("unknown discount type %q", req.DiscountType)
	}
	if req.AmountPaid != nil && req.AmountPaid.IsNegative() {
		return nil, validationf("amount paid must not be negative")
	}
	if !isCents(req.Discount) || !isCents(req.Tax) || !isCents(req.ShippingFee) ||
		(req.AmountPaid != nil && !isCents(*req.AmountPaid)) {
		return nil, validationf("discount, tax, shipping fee and amount paid allow at most 2 decimal places")
	}

	lines := make([]saleLine, 0, len(req.Items))
	for i, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, validationf("item %d: invalid product_id", i+1)
		}
		if it.Quantity < 1 {
			return nil, validationf("item %d: quantity must be at least 1", i+1)
		}
		if (it.UnitPrice != nil && it.UnitPrice.IsNegative()) || it.Discount.IsNegative() || it.Tax.IsNegative() {
			return nil, validationf("item %d: price, discount and tax must not be negative", i+1)
		}
		if (it.UnitPrice != nil && !isCents(*it.UnitPrice)) || !isCents(it.Discount) || !isCents(it.Tax) {
			return nil, validationf("item %d: price, discount and tax allow at most 2 decimal places", i+1)
		}
		lines = append(lines, saleLine{
			productID: pid,
			quantity:  it.Quantity,
			unitPrice: it.UnitPrice,
			discount:  it.Discount,
			tax:       it.Tax,
		})
	}
	return lines, nil
}

func distinctSortedIDs(lines []saleLine) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, ln := range lines {
		if !seen[ln.productID] {
			seen[ln.productID] = true
			ids = append(ids, ln.productID)
		}
	}
	sortIDs(ids)
	return ids
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

const saleNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newSaleNumber returns SALE-<base36 millis>-<5 random base36 chars>.
func newSaleNumber(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = saleNumberAlphabet[rand.IntN(len(saleNumberAlphabet))]
	}
	return "SALE-" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)) + "-" + string(suffix)
}

// ── AddPayment ────────────────────────────────────────────────────────────────

func (s *saleService) AddPayment(ctx context.Context, actor Actor, id uuid.UUID, req dto.AddPaymentRequest) (*dto.SaleResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, validationf("payment amount must be greater than zero")
	}
	if !isCents(req.Amount) {
		return nil, validationf("payment amount allows at most 2 decimal places")
	}
	if strings.TrimSpace(req.Method) == "" {
		return nil, validationf("payment method is required")
	}

	var sale *model.Sale
	txErr := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindForUpdateTx(tx, actor.OwnerID, id)
		if err != nil {
			return err
		}
		applyTotals(sale)

		if sale.IsTerminal() {
			return validationf("cannot add payment to a %s sale", sale.Status)
		}
		if !sale.Balance.IsPositive() {
			return validationf("sale is already fully paid")
		}
		if req.Amount.GreaterThan(sale.Balance) {
			return validationf("payment amount %s exceeds balance %s",
				req.Amount.StringFixed(2), sale.Balance.StringFixed(2))
		}

		payment := model.SalePayment{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			Amount:    req.Amount,
			Method:    req.Method,
			Reference: req.Reference,
			Notes:     req.Notes,
			CreatedAt: s.now(),
		}
		if err := s.sales.AppendPaymentTx(tx, &payment); err != nil {
			return err
		}
		sale.Payments = append(sale.Payments, payment)
		applyTotals(sale)
		return s.sales.UpdateTx(tx, sale)
	})
	if txErr != nil {
		return nil, translateRepoErr(txErr, "sale")
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Str("payment_status", sale.PaymentStatus).
		Msg("sale: payment recorded")

	s.cache.Invalidate(ctx, sale.SellerID)
	return saleToResponse(sale), nil
}

// ── CancelSale ────────────────────────────────────────────────────────────────
// Compensation is relative: each line's quantity is added back to whatever the product
// holds now, so restocks and sales made since the original sale are preserved.

func (s *saleService) CancelSale(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*dto.SaleResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("a cancellation reason is required")
	}

	var sale *model.Sale
	txErr := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindForUpdateTx(tx, actor.OwnerID, id)
		if err != nil {
			return err
		}
		if sale.Status == model.SaleCancelled {
			return validationf("sale is already cancelled")
		}

		// Lock in ascending id order, same as CreateSale.
		ids := make([]uuid.UUID, 0, len(sale.Items))
		seen := make(map[uuid.UUID]bool, len(sale.Items))
		for _, it := range sale.Items {
			if !seen[it.ProductID] {
				seen[it.ProductID] = true
				ids = append(ids, it.ProductID)
			}
		}
		sortIDs(ids)
		products := make(map[uuid.UUID]*model.Product, len(ids))
		for _, pid := range ids {
			p, err := s.products.LockTx(tx, sale.SellerID, pid)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFoundf("product %s no longer exists, sale cannot be cancelled", pid)
				}
				return err
			}
			products[pid] = p
		}

		now := s.now()
		for _, it := range sale.Items {
			p := products[it.ProductID]
			if err := s.products.IncrementStockTx(tx, p.ID, it.Quantity); err != nil {
				return err
			}
			previous := p.Quantity
			p.Quantity += it.Quantity
			p.RefreshStatus()
			if err := s.products.SaveDerivedTx(tx, p); err != nil {
				return err
			}
			saleID := sale.ID
			if err := s.history.CreateTx(tx, &model.StockEntry{
				ID:               uuid.New(),
				ProductID:        p.ID,
				Type:             model.StockReturned,
				Quantity:         it.Quantity,
				PreviousQuantity: previous,
				NewQuantity:      p.Quantity,
				Reason:           "Sale cancelled: " + reason,
				PerformedBy:      actor.UserID,
				SaleID:           &saleID,
				CreatedAt:        now,
			}); err != nil {
				return err
			}
		}

		cancelledBy := actor.UserID
		sale.Status = model.SaleCancelled
		sale.IsDeleted = true
		sale.CancelledAt = &now
		sale.CancelledBy = &cancelledBy
		sale.CancellationReason = &reason
		if sale.Notes == "" {
			sale.Notes = "Cancelled: " + reason
		} else {
			sale.Notes += "\nCancelled: " + reason
		}
		applyTotals(sale)
		return s.sales.UpdateTx(tx, sale)
	})
	if txErr != nil {
		return nil, translateRepoErr(txErr, "sale")
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("reason", reason).
		Msg("sale: cancelled")

	s.afterCommit(ctx, sale)
	return saleToResponse(sale), nil
}

// ── UpdateSale ────────────────────────────────────────────────────────────────

func (s *saleService) UpdateSale(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateSaleRequest) (*dto.SaleResponse, error) {
	var sale *model.Sale
	txErr := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		sale, err = s.sales.FindForUpdateTx(tx, actor.OwnerID, id)
		if err != nil {
			return err
		}
		if sale.IsTerminal() {
			return validationf("cannot update a %s sale", sale.Status)
		}
		if req.Customer != nil {
			sale.Customer = customerFromRequest(*req.Customer)
		}
		if req.Notes != nil {
			sale.Notes = *req.Notes
		}
		if req.Delivery != nil {
			d, err := deliveryFromRequest(*req.Delivery)
			if err != nil {
				return err
			}
			sale.Delivery = d
		}
		if req.Invoice != nil {
			if err := applyInvoice(sale, *req.Invoice); err != nil {
				return err
			}
		}
		applyTotals(sale)
		return s.sales.UpdateTx(tx, sale)
	})
	if txErr != nil {
		return nil, translateRepoErr(txErr, "sale")
	}
	return saleToResponse(sale), nil
}

func deliveryFromRequest(req dto.DeliveryRequest) (model.Delivery, error) {
	if req.DeliveryFee.IsNegative() || !isCents(req.DeliveryFee) {
		return model.Delivery{}, validationf("delivery fee must be a non-negative amount with at most 2 decimal places")
	}
	status := req.Status
	switch status {
	case "":
		if req.Required {
			status = model.DeliveryPending
		}
	case model.DeliveryPending, model.DeliveryProcessing, model.DeliveryShipped,
		model.DeliveryDelivered, model.DeliveryCancelled:
	default:
		return model.Delivery{}, validationf("unknown delivery status %q", req.Status)
	}
	return model.Delivery{
		Required:       req.Required,
		Status:         status,
		Address:        strings.TrimSpace(req.Address),
		TrackingNumber: strings.TrimSpace(req.TrackingNumber),
		Date:           req.DeliveryDate,
		Fee:            req.DeliveryFee,
	}, nil
}

// applyInvoice edits the invoice fields a seller controls. Number and issue date are
// assigned at checkout and never change.
func applyInvoice(sale *model.Sale, req dto.InvoiceRequest) error {
	if req.DueDate != nil {
		if req.DueDate.Before(sale.InvoiceIssuedAt.Truncate(24 * time.Hour)) {
			return validationf("invoice due date must not be before the issue date")
		}
		due := *req.DueDate
		sale.InvoiceDueDate = &due
	}
	if req.Notes != nil {
		sale.InvoiceNotes = *req.Notes
	}
	if req.TermsAndConditions != nil {
		sale.InvoiceTerms = *req.TermsAndConditions
	}
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, actor Actor, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, actor.OwnerID, id)
	if err != nil {
		return nil, translateRepoErr(err, "sale")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) ListSales(ctx context.Context, actor Actor, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.EndDate != nil {
		end := endOfDay(*filter.EndDate)
		filter.EndDate = &end
	}
	sales, total, err := s.sales.List(ctx, actor.OwnerID, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{
		Data:       make([]dto.SaleResponse, 0, len(sales)),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}
	for i := range sales {
		resp.Data = append(resp.Data, *saleToResponse(&sales[i]))
	}
	return resp, nil
}

// afterCommit runs best-effort side effects of a committed sale write.
func (s *saleService) afterCommit(ctx context.Context, sale *model.Sale) {
	s.cache.Invalidate(ctx, sale.SellerID)
	if s.receipts == nil {
		return
	}
	if err := s.receipts.EnqueueReceipt(ctx, sale.SellerID, sale.ID); err != nil {
		log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("sale: receipt enqueue failed")
	}
}

// ── Mapping helpers ───────────────────────────────────────────────────────────

func customerFromRequest(c dto.CustomerRequest) model.Customer {
	return model.Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:         s.ID.String(),
		SaleNumber: s.SaleNumber,
		SellerID:   s.SellerID.String(),
		Customer: dto.CustomerResponse{
			Name:    s.Customer.Name,
			Phone:   s.Customer.Phone,
			Email:   s.Customer.Email,
			Address: s.Customer.Address,
		},
		Items:              make([]dto.SaleItemResponse, 0, len(s.Items)),
		Subtotal:           s.Subtotal,
		Discount:           s.Discount,
		DiscountType:       s.DiscountType,
		DiscountAmount:     s.DiscountAmount,
		Tax:                s.Tax,
		ShippingFee:        s.ShippingFee,
		TotalAmount:        s.TotalAmount,
		AmountPaid:         s.AmountPaid,
		Balance:            s.Balance,
		PaymentStatus:      s.PaymentStatus,
		PaymentMethod:      s.PaymentMethod,
		Payments:           make([]dto.SalePaymentResponse, 0, len(s.Payments)),
		Status:             s.Status,
		Channel:            s.Channel,
		Notes:              s.Notes,
		InvoiceNumber:      s.InvoiceNumber,
		CancelledAt:        formatTimePtr(s.CancelledAt),
		CancellationReason: s.CancellationReason,
		IsDeleted:          s.IsDeleted,
		Version:            s.Version,
		SaleDate:           formatTime(s.SaleDate),
		CreatedAt:          formatTime(s.CreatedAt),
		Invoice: dto.InvoiceResponse{
			Number:             s.InvoiceNumber,
			IssueDate:          formatTime(s.InvoiceIssuedAt),
			DueDate:            formatTimePtr(s.InvoiceDueDate),
			Notes:              s.InvoiceNotes,
			TermsAndConditions: s.InvoiceTerms,
		},
		Delivery: dto.DeliveryResponse{
			Required:       s.Delivery.Required,
			Status:         s.Delivery.Status,
			Address:        s.Delivery.Address,
			TrackingNumber: s.Delivery.TrackingNumber,
			DeliveryDate:   formatTimePtr(s.Delivery.Date),
			DeliveryFee:    s.Delivery.Fee,
		},
	}
	if s.CancelledBy != nil {
		by := s.CancelledBy.String()
		resp.CancelledBy = &by
	}
	for _, it := range s.Items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			ProductCode: it.ProductCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Discount:    it.Discount,
			Tax:         it.Tax,
			Subtotal:    it.Subtotal,
		})
	}
	for _, p := range s.Payments {
		resp.Payments = append(resp.Payments, dto.SalePaymentResponse{
			ID:        p.ID.String(),
			Amount:    p.Amount,
			Method:    p.Method,
			Reference: p.Reference,
			Notes:     p.Notes,
			CreatedAt: formatTime(p.CreatedAt),
		})
	}
	return resp
}
