package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Status         string     `form:"status"          validate:"omitempty,oneof=completed pending cancelled refunded all"`
	PaymentStatus  string     `form:"payment_status"  validate:"omitempty,oneof=paid partial unpaid"`
	StartDate      *time.Time `form:"start_date"      time_format:"2006-01-02" time_utc:"1"`
	EndDate        *time.Time `form:"end_date"        time_format:"2006-01-02" time_utc:"1"`
	Search         string     `form:"search"`
	IncludeDeleted bool       `form:"include_deleted"`
	SortBy         string     `form:"sort_by"         validate:"omitempty,oneof=sale_date -sale_date total_amount -total_amount sale_number -sale_number created_at -created_at"`
	Page           int        `form:"page,default=1"   validate:"min=1"`
	Limit          int        `form:"limit,default=20" validate:"min=1,max=100"`
}

type SaleListResponse struct {
	Data       []SaleResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
	// UnitPrice defaults to the product's current unit price when omitted.
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
	Discount  decimal.Decimal  `json:"discount"   validate:"min=0"`
	Tax       decimal.Decimal  `json:"tax"        validate:"min=0"`
}

type CustomerRequest struct {
	Name    string `json:"name"    validate:"max=120"`
	Phone   string `json:"phone"   validate:"max=30"`
	Email   string `json:"email"   validate:"omitempty,email"`
	Address string `json:"address" validate:"max=255"`
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest `json:"items"          validate:"required,min=1,dive"`
	Customer      CustomerRequest   `json:"customer"`
	PaymentMethod string            `json:"payment_method" validate:"omitempty,max=30"`
	// AmountPaid defaults to the sale total when omitted.
	AmountPaid   *decimal.Decimal `json:"amount_paid"   validate:"omitempty,min=0"`
	Discount     decimal.Decimal  `json:"discount"      validate:"min=0"`
	DiscountType string           `json:"discount_type" validate:"omitempty,oneof=fixed percentage"`
	Tax          decimal.Decimal  `json:"tax"           validate:"min=0"`
	ShippingFee  decimal.Decimal  `json:"shipping_fee"  validate:"min=0"`
	Channel      string           `json:"channel"       validate:"omitempty,max=30"`
	Notes        string           `json:"notes"         validate:"max=1000"`
}

type AddPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"    validate:"gt=0"`
	Method    string          `json:"method"    validate:"required,max=30"`
	Reference *string         `json:"reference" validate:"omitempty,max=120"`
	Notes     *string         `json:"notes"     validate:"omitempty,max=500"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// DeliveryRequest replaces the sale's delivery details as a whole.
type DeliveryRequest struct {
	Required       bool            `json:"required"`
	Status         string          `json:"status"          validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	Address        string          `json:"address"         validate:"max=500"`
	TrackingNumber string          `json:"tracking_number" validate:"max=120"`
	DeliveryDate   *time.Time      `json:"delivery_date"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"    validate:"min=0"`
}

// InvoiceRequest edits the invoice fields that are not system-assigned; nil leaves a field as is.
type InvoiceRequest struct {
	DueDate            *time.Time `json:"due_date"`
	Notes              *string    `json:"notes"                validate:"omitempty,max=1000"`
	TermsAndConditions *string    `json:"terms_and_conditions" validate:"omitempty,max=2000"`
}

// UpdateSaleRequest only touches descriptive fields; lines and money are immutable.
type UpdateSaleRequest struct {
	Customer *CustomerRequest `json:"customer"`
	Notes    *string          `json:"notes"    validate:"omitempty,max=1000"`
	Delivery *DeliveryRequest `json:"delivery"`
	Invoice  *InvoiceRequest  `json:"invoice"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductCode string          `json:"product_code"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type SalePaymentResponse struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference *string         `json:"reference"`
	Notes     *string         `json:"notes"`
	CreatedAt string          `json:"created_at"`
}

type CustomerResponse struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type DeliveryResponse struct {
	Required       bool            `json:"required"`
	Status         string          `json:"status"`
	Address        string          `json:"address"`
	TrackingNumber string          `json:"tracking_number"`
	DeliveryDate   *string         `json:"delivery_date"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
}

type InvoiceResponse struct {
	Number             string  `json:"number"`
	IssueDate          string  `json:"issue_date"`
	DueDate            *string `json:"due_date"`
	Notes              string  `json:"notes"`
	TermsAndConditions string  `json:"terms_and_conditions"`
}

type SaleResponse struct {
	ID                 string                `json:"id"`
	SaleNumber         string                `json:"sale_number"`
	SellerID           string                `json:"seller_id"`
	Customer           CustomerResponse      `json:"customer"`
	Items              []SaleItemResponse    `json:"items"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	Discount           decimal.Decimal       `json:"discount"`
	DiscountType       string                `json:"discount_type"`
	DiscountAmount     decimal.Decimal       `json:"discount_amount"`
	Tax                decimal.Decimal       `json:"tax"`
	ShippingFee        decimal.Decimal       `json:"shipping_fee"`
	TotalAmount        decimal.Decimal       `json:"total_amount"`
	AmountPaid         decimal.Decimal       `json:"amount_paid"`
	Balance            decimal.Decimal       `json:"balance"`
	PaymentStatus      string                `json:"payment_status"`
	PaymentMethod      string                `json:"payment_method"`
	Payments           []SalePaymentResponse `json:"payments"`
	Status             string                `json:"status"`
	Channel            string                `json:"channel"`
	Notes              string                `json:"notes"`
	InvoiceNumber      string                `json:"invoice_number"`
	Invoice            InvoiceResponse       `json:"invoice"`
	Delivery           DeliveryResponse      `json:"delivery"`
	CancelledAt        *string               `json:"cancelled_at"`
	CancelledBy        *string               `json:"cancelled_by"`
	CancellationReason *string               `json:"cancellation_reason"`
	IsDeleted          bool                  `json:"is_deleted"`
	Version            int                   `json:"version"`
	SaleDate           string                `json:"sale_date"`
	CreatedAt          string                `json:"created_at"`
}
