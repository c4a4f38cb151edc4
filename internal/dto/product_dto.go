package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	ProductCode    string          `json:"product_code"    validate:"required,min=1,max=64"`
	Name           string          `json:"name"            validate:"required,min=2,max=120"`
	Description    *string         `json:"description"     validate:"omitempty,max=1000"`
	Category       string          `json:"category"        validate:"max=60"`
	SaleType       string          `json:"sale_type"       validate:"omitempty,oneof=unit bulk wholesale retail"`
	UnitPrice      decimal.Decimal `json:"unit_price"      validate:"min=0"`
	CostPrice      decimal.Decimal `json:"cost_price"      validate:"min=0"`
	WholesalePrice decimal.Decimal `json:"wholesale_price" validate:"min=0"`
	Currency       string          `json:"currency"        validate:"omitempty,len=3"`
	Quantity       int             `json:"quantity"        validate:"min=0"`
	MinStockLevel  *int            `json:"min_stock_level" validate:"omitempty,min=0"`
	SKU            *string         `json:"sku"`
	Barcode        *string         `json:"barcode"`
	Unit           string          `json:"unit"            validate:"max=20"`
	Notes          *string         `json:"notes"`
}

// UpdateProductRequest updates descriptive and pricing fields. Quantity is only changed
// through the stock endpoints so every change lands in the stock history.
type UpdateProductRequest struct {
	Name           *string          `json:"name"            validate:"omitempty,min=2,max=120"`
	Description    *string          `json:"description"     validate:"omitempty,max=1000"`
	Category       *string          `json:"category"        validate:"omitempty,max=60"`
	SaleType       *string          `json:"sale_type"       validate:"omitempty,oneof=unit bulk wholesale retail"`
	UnitPrice      *decimal.Decimal `json:"unit_price"      validate:"omitempty,min=0"`
	CostPrice      *decimal.Decimal `json:"cost_price"      validate:"omitempty,min=0"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price" validate:"omitempty,min=0"`
	Currency       *string          `json:"currency"        validate:"omitempty,len=3"`
	MinStockLevel  *int             `json:"min_stock_level" validate:"omitempty,min=0"`
	SKU            *string          `json:"sku"`
	Barcode        *string          `json:"barcode"`
	Unit           *string          `json:"unit"            validate:"omitempty,max=20"`
	Notes          *string          `json:"notes"`
}

type StockAdjustmentRequest struct {
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Reason   string `json:"reason"   validate:"max=255"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Status   string `form:"status"  validate:"omitempty,oneof=in_stock low_stock out_of_stock"`
	Active   string `form:"active"` // true (default) | false | all
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type StockHistoryFilter struct {
	Type  string `form:"type"  validate:"omitempty,oneof=added removed sold returned adjusted"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductAnalyticsResponse struct {
	TotalSold        int             `json:"total_sold"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	AverageSalePrice decimal.Decimal `json:"average_sale_price"`
	LastSoldAt       *string         `json:"last_sold_at"`
	PopularityScore  int             `json:"popularity_score"`
}

type ProductResponse struct {
	ID             string                   `json:"id"`
	ProductCode    string                   `json:"product_code"`
	Name           string                   `json:"name"`
	Description    *string                  `json:"description"`
	Category       string                   `json:"category"`
	SaleType       string                   `json:"sale_type"`
	UnitPrice      decimal.Decimal          `json:"unit_price"`
	CostPrice      decimal.Decimal          `json:"cost_price"`
	WholesalePrice decimal.Decimal          `json:"wholesale_price"`
	Currency       string                   `json:"currency"`
	Quantity       int                      `json:"quantity"`
	MinStockLevel  int                      `json:"min_stock_level"`
	TotalValue     decimal.Decimal          `json:"total_value"`
	Status         string                   `json:"status"`
	SKU            *string                  `json:"sku"`
	Barcode        *string                  `json:"barcode"`
	Unit           string                   `json:"unit"`
	Analytics      ProductAnalyticsResponse `json:"analytics"`
	IsActive       bool                     `json:"is_active"`
	Notes          *string                  `json:"notes"`
	CreatedAt      string                   `json:"created_at"`
	UpdatedAt      string                   `json:"updated_at"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

type StockEntryResponse struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	Quantity         int     `json:"quantity"`
	PreviousQuantity int     `json:"previous_quantity"`
	NewQuantity      int     `json:"new_quantity"`
	Reason           string  `json:"reason"`
	PerformedBy      string  `json:"performed_by"`
	SaleID           *string `json:"sale_id"`
	CreatedAt        string  `json:"created_at"`
}

type StockHistoryResponse struct {
	ProductID string               `json:"product_id"`
	Data      []StockEntryResponse `json:"data"`
	Total     int64                `json:"total"`
	Page      int                  `json:"page"`
	Limit     int                  `json:"limit"`
}
