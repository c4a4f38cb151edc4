package repository

import (
	"context"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesOverview aggregates completed, non-deleted sales over a date range.
type SalesOverview struct {
	TotalSales         int64
	TotalRevenue       decimal.Decimal
	TotalPaid          decimal.Decimal
	OutstandingBalance decimal.Decimal
	ItemsSold          int64
}

// GroupTotal is one row of a grouped revenue breakdown.
type GroupTotal struct {
	Key   string
	Total decimal.Decimal
	Count int64
}

// MonthTotal is one calendar month of a year report. Month is 1-12.
type MonthTotal struct {
	Month      int
	TotalSales int64
	Revenue    decimal.Decimal
}

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, sellerID, id uuid.UUID) (*model.Sale, error)
	FindByIdempotencyKey(ctx context.Context, sellerID uuid.UUID, key string) (*model.Sale, error)
	// FindForUpdateTx row-locks the sale and loads its items and payments.
	FindForUpdateTx(tx *gorm.DB, sellerID, id uuid.UUID) (*model.Sale, error)
	// UpdateTx persists the mutable columns if s.Version is still current, then bumps
	// s.Version. A stale version yields ErrConflict.
	UpdateTx(tx *gorm.DB, s *model.Sale) error
	AppendPaymentTx(tx *gorm.DB, p *model.SalePayment) error
	List(ctx context.Context, sellerID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error)

	Overview(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (*SalesOverview, error)
	Breakdown(ctx context.Context, sellerID uuid.UUID, column string, from, to time.Time) ([]GroupTotal, error)
	Monthly(ctx context.Context, sellerID uuid.UUID, year int) ([]MonthTotal, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

func (r *saleRepo) FindByID(ctx context.Context, sellerID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := preloadLines(r.db.WithContext(ctx)).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&s).Error
	return &s, err
}

func (r *saleRepo) FindByIdempotencyKey(ctx context.Context, sellerID uuid.UUID, key string) (*model.Sale, error) {
	var s model.Sale
	err := preloadLines(r.db.WithContext(ctx)).
		Where("seller_id = ? AND idempotency_key = ?", sellerID, key).
		First(&s).Error
	return &s, err
}

func (r *saleRepo) FindForUpdateTx(tx *gorm.DB, sellerID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND seller_id = ?", id, sellerID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	if err := tx.Where("sale_id = ?", s.ID).Order("position ASC").Find(&s.Items).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("sale_id = ?", s.ID).Order("created_at ASC").Find(&s.Payments).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) UpdateTx(tx *gorm.DB, s *model.Sale) error {
	res := tx.Model(&model.Sale{}).
		Where("id = ? AND version = ?", s.ID, s.Version).
		Updates(map[string]interface{}{
			"customer_name":            s.Customer.Name,
			"customer_phone":           s.Customer.Phone,
			"customer_email":           s.Customer.Email,
			"customer_address":         s.Customer.Address,
			"subtotal":                 s.Subtotal,
			"discount_amount":          s.DiscountAmount,
			"total_amount":             s.TotalAmount,
			"amount_paid":              s.AmountPaid,
			"balance":                  s.Balance,
			"payment_status":           s.PaymentStatus,
			"status":                   s.Status,
			"notes":                    s.Notes,
			"delivery_required":        s.Delivery.Required,
			"delivery_status":          s.Delivery.Status,
			"delivery_address":         s.Delivery.Address,
			"delivery_tracking_number": s.Delivery.TrackingNumber,
			"delivery_date":            s.Delivery.Date,
			"delivery_fee":             s.Delivery.Fee,
			"invoice_due_date":         s.InvoiceDueDate,
			"invoice_notes":            s.InvoiceNotes,
			"invoice_terms":            s.InvoiceTerms,
			"cancelled_at":             s.CancelledAt,
			"cancelled_by":             s.CancelledBy,
			"cancellation_reason":      s.CancellationReason,
			"is_deleted":               s.IsDeleted,
			"version":                  s.Version + 1,
			"updated_at":               time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	s.Version++
	return nil
}

func (r *saleRepo) AppendPaymentTx(tx *gorm.DB, p *model.SalePayment) error {
	return tx.Create(p).Error
}

func (r *saleRepo) List(ctx context.Context, sellerID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("seller_id = ?", sellerID)

	if !filter.IncludeDeleted {
		q = q.Where("is_deleted = false")
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.StartDate != nil {
		q = q.Where("sale_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("sale_date <= ?", *filter.EndDate)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("sale_number ILIKE ? OR customer_name ILIKE ? OR customer_phone ILIKE ?", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := preloadLines(q).
		Order(saleOrder(filter.SortBy)).
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

// saleOrder maps a sort_by value ("total_amount", "-sale_date", ...) to an ORDER BY
// clause. Unknown columns fall back to newest first; id breaks ties so pages are stable.
func saleOrder(sortBy string) string {
	dir := "ASC"
	col := sortBy
	if len(col) > 0 && col[0] == '-' {
		dir = "DESC"
		col = col[1:]
	}
	switch col {
	case "sale_date", "total_amount", "sale_number", "created_at":
	default:
		col, dir = "sale_date", "DESC"
	}
	return col + " " + dir + ", id " + dir
}

// completedInRange scopes a query to the seller's completed, live sales in [from, to].
func (r *saleRepo) completedInRange(ctx context.Context, sellerID uuid.UUID, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("sales.seller_id = ? AND sales.status = ? AND sales.is_deleted = false", sellerID, model.SaleCompleted).
		Where("sales.sale_date >= ? AND sales.sale_date <= ?", from, to)
}

func (r *saleRepo) Overview(ctx context.Context, sellerID uuid.UUID, from, to time.Time) (*SalesOverview, error) {
	var o SalesOverview
	err := r.completedInRange(ctx, sellerID, from, to).
		Select(`COUNT(*) AS total_sales,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(SUM(amount_paid), 0) AS total_paid,
			COALESCE(SUM(balance), 0) AS outstanding_balance`).
		Scan(&o).Error
	if err != nil {
		return nil, err
	}

	err = r.completedInRange(ctx, sellerID, from, to).
		Joins("JOIN sale_items ON sale_items.sale_id = sales.id").
		Select("COALESCE(SUM(sale_items.quantity), 0)").
		Scan(&o.ItemsSold).Error
	return &o, err
}

// breakdownColumns whitelists the columns Breakdown may group by.
var breakdownColumns = map[string]bool{"payment_method": true, "channel": true}

func (r *saleRepo) Breakdown(ctx context.Context, sellerID uuid.UUID, column string, from, to time.Time) ([]GroupTotal, error) {
	if !breakdownColumns[column] {
		return nil, gorm.ErrInvalidField
	}
	var rows []GroupTotal
	err := r.completedInRange(ctx, sellerID, from, to).
		Select(column + " AS key, COALESCE(SUM(total_amount), 0) AS total, COUNT(*) AS count").
		Group(column).
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *saleRepo) Monthly(ctx context.Context, sellerID uuid.UUID, year int) ([]MonthTotal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var rows []MonthTotal
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("seller_id = ? AND status = ? AND is_deleted = false", sellerID, model.SaleCompleted).
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Select(`EXTRACT(MONTH FROM sale_date)::int AS month,
			COUNT(*) AS total_sales,
			COALESCE(SUM(total_amount), 0) AS revenue`).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}
