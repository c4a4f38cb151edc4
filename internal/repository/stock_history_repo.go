package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockHistoryFilter defines filters for listing a product's stock ledger.
type StockHistoryFilter struct {
	ProductID uuid.UUID
	Type      string
	Page      int
	Limit     int
}

// StockHistoryRepository is append-only: there is no update or delete.
type StockHistoryRepository interface {
	CreateTx(tx *gorm.DB, e *model.StockEntry) error
	List(ctx context.Context, filter StockHistoryFilter) ([]model.StockEntry, int64, error)
}

type stockHistoryRepo struct{ db *gorm.DB }

func NewStockHistoryRepository(db *gorm.DB) StockHistoryRepository {
	return &stockHistoryRepo{db: db}
}

func (r *stockHistoryRepo) CreateTx(tx *gorm.DB, e *model.StockEntry) error {
	return tx.Create(e).Error
}

func (r *stockHistoryRepo) List(ctx context.Context, filter StockHistoryFilter) ([]model.StockEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockEntry{}).
		Where("product_id = ?", filter.ProductID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var entries []model.StockEntry
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}
