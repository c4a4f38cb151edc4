package repository

import (
	"context"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for the product catalog.
// Every lookup is scoped to an owner. Methods with a Tx suffix must be called with the
// *gorm.DB handed out by TxManager.WithinTx.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, ownerID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error)
	Deactivate(ctx context.Context, ownerID, id uuid.UUID) error
	LowStock(ctx context.Context, ownerID uuid.UUID) ([]model.Product, error)
	TopSelling(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.Product, error)

	// CreateTx inserts a product inside a transaction.
	CreateTx(tx *gorm.DB, p *model.Product) error
	// UpdateTx writes descriptive and pricing fields plus the derived status.
	UpdateTx(tx *gorm.DB, p *model.Product) error
	// LockActiveTx row-locks the active products among ids, in ascending id order.
	// Products that are missing, inactive or owned by someone else are simply absent.
	LockActiveTx(tx *gorm.DB, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Product, error)
	// LockTx row-locks one product regardless of its active flag.
	LockTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.Product, error)
	// DecrementStockTx subtracts qty only if enough stock remains; otherwise ErrStockGuard.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error
	// IncrementStockTx adds qty relative to whatever the current quantity is.
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error
	// SaveDerivedTx writes status, total value and analytics. Quantity is never written here.
	SaveDerivedTx(tx *gorm.DB, p *model.Product) error
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return classifyPgError(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&p).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, ownerID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("owner_id = ?", ownerID)

	// "false" = inactive only, "all" = everything, anything else = active (default)
	switch filter.Active {
	case "false":
		q = q.Where("is_active = false")
	case "all":
	default:
		q = q.Where("is_active = true")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR product_code ILIKE ?", like, like)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) UpdateTx(tx *gorm.DB, p *model.Product) error {
	return classifyPgError(tx.Model(p).
		Select("name", "description", "category", "sale_type", "unit_price", "cost_price",
			"wholesale_price", "currency", "min_stock_level", "status", "total_value",
			"sku", "barcode", "unit", "notes", "updated_at").
		Updates(p).Error)
}

func (r *productRepo) Deactivate(ctx context.Context, ownerID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) LowStock(ctx context.Context, ownerID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = true AND quantity > 0 AND quantity <= min_stock_level", ownerID).
		Order("quantity ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) TopSelling(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = true", ownerID).
		Order("analytics_total_sold DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) LockActiveTx(tx *gorm.DB, ownerID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND owner_id = ? AND is_active = true", ids, ownerID).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) LockTx(tx *gorm.DB, ownerID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&p).Error
	return &p, err
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND quantity >= ?", id, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockGuard
	}
	return nil
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) SaveDerivedTx(tx *gorm.DB, p *model.Product) error {
	return tx.Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"status":                       p.Status,
		"total_value":                  p.TotalValue,
		"analytics_total_sold":         p.Analytics.TotalSold,
		"analytics_total_revenue":      p.Analytics.TotalRevenue,
		"analytics_average_sale_price": p.Analytics.AverageSalePrice,
		"analytics_last_sold_at":       p.Analytics.LastSoldAt,
		"analytics_popularity_score":   p.Analytics.PopularityScore,
		"updated_at":                   time.Now(),
	}).Error
}
