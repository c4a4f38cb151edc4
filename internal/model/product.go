package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product status values. Status is derived from Quantity and MinStockLevel and is
// recomputed on every stock mutation (see RefreshStatus).
const (
	ProductInStock    = "in_stock"
	ProductLowStock   = "low_stock"
	ProductOutOfStock = "out_of_stock"
)

// Product is a catalog entry owned by a single seller.
// ProductCode is the seller-facing identifier and is unique per owner.
type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_products_owner_code"`
	ProductCode    string    `gorm:"not null;uniqueIndex:idx_products_owner_code"`
	Name           string    `gorm:"index;not null"`
	Description    *string
	Category       string
	SaleType       string          `gorm:"type:varchar(20);not null;default:'unit'"` // unit | bulk | wholesale | retail
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	WholesalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'NGN'"`
	Quantity       int             `gorm:"not null;default:0;check:quantity >= 0"`
	MinStockLevel  int             `gorm:"not null;default:10"`
	// TotalValue = Quantity * (CostPrice, or UnitPrice when no cost is recorded)
	TotalValue decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Status     string          `gorm:"type:varchar(20);not null;default:'in_stock'"`
	SKU        *string
	Barcode    *string
	Unit       string `gorm:"not null;default:'piece'"`
	Analytics  ProductAnalytics `gorm:"embedded;embeddedPrefix:analytics_"`
	IsActive   bool             `gorm:"not null;default:true"`
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProductAnalytics holds sales aggregates maintained in the same transaction as each sale.
type ProductAnalytics struct {
	TotalSold        int             `gorm:"not null;default:0"`
	TotalRevenue     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	AverageSalePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LastSoldAt       *time.Time
	PopularityScore  int `gorm:"not null;default:0"`
}

// RefreshStatus recomputes the derived Status and TotalValue fields.
func (p *Product) RefreshStatus() {
	switch {
	case p.Quantity <= 0:
		p.Status = ProductOutOfStock
	case p.Quantity <= p.MinStockLevel:
		p.Status = ProductLowStock
	default:
		p.Status = ProductInStock
	}
	price := p.CostPrice
	if price.IsZero() {
		price = p.UnitPrice
	}
	p.TotalValue = price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// RecordSale folds a sold line into the product analytics.
func (p *Product) RecordSale(quantity int, unitPrice decimal.Decimal, at time.Time) {
	p.Analytics.TotalSold += quantity
	p.Analytics.TotalRevenue = p.Analytics.TotalRevenue.Add(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
	if p.Analytics.TotalSold > 0 {
		p.Analytics.AverageSalePrice = p.Analytics.TotalRevenue.
			Div(decimal.NewFromInt(int64(p.Analytics.TotalSold))).Round(2)
	}
	p.Analytics.LastSoldAt = &at
	p.Analytics.PopularityScore++
}
