package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale lifecycle status. Cancelled and refunded are terminal.
const (
	SaleCompleted = "completed"
	SalePending   = "pending"
	SaleCancelled = "cancelled"
	SaleRefunded  = "refunded"
)

// Payment status, derived from Balance and AmountPaid.
const (
	PaymentPaid    = "paid"
	PaymentPartial = "partial"
	PaymentUnpaid  = "unpaid"
)

// Delivery status.
const (
	DeliveryPending    = "pending"
	DeliveryProcessing = "processing"
	DeliveryShipped    = "shipped"
	DeliveryDelivered  = "delivered"
	DeliveryCancelled  = "cancelled"
)

// Discount types.
const (
	DiscountFixed      = "fixed"
	DiscountPercentage = "percentage"
)

// Sale is the aggregate root for a recorded sale.
// Subtotal, DiscountAmount, TotalAmount, AmountPaid, Balance and PaymentStatus are derived
// and must only be written through service.ComputeTotals.
type Sale struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleNumber string    `gorm:"uniqueIndex;not null"`
	SellerID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_sales_seller_idem,priority:1"`
	Customer   Customer  `gorm:"embedded;embeddedPrefix:customer_"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Discount       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	DiscountType   string          `gorm:"type:varchar(20);not null;default:'fixed'"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Tax            decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ShippingFee    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Balance        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PaymentStatus  string          `gorm:"type:varchar(20);not null"`
	PaymentMethod  string          `gorm:"type:varchar(20);not null;default:'cash'"`

	Status  string `gorm:"type:varchar(20);not null;default:'completed';index"`
	Channel string `gorm:"type:varchar(20);not null;default:'in_store'"`
	Notes   string

	Delivery Delivery `gorm:"embedded;embeddedPrefix:delivery_"`

	InvoiceNumber   string `gorm:"uniqueIndex;not null"`
	InvoiceIssuedAt time.Time
	InvoiceDueDate  *time.Time
	InvoiceNotes    string
	InvoiceTerms    string

	// IdempotencyKey deduplicates client retries of the same sale (unique per seller).
	IdempotencyKey *string `gorm:"uniqueIndex:idx_sales_seller_idem,priority:2"`

	CancelledAt        *time.Time
	CancelledBy        *uuid.UUID `gorm:"type:uuid"`
	CancellationReason *string
	IsDeleted          bool `gorm:"not null;default:false;index"`

	// Version is bumped on every update; writes are compare-and-swap on it.
	Version   int       `gorm:"not null;default:1"`
	SaleDate  time.Time `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items    []SaleItem    `gorm:"foreignKey:SaleID"`
	Payments []SalePayment `gorm:"foreignKey:SaleID"`
}

// IsTerminal reports whether the sale accepts no further payments or edits.
func (s *Sale) IsTerminal() bool {
	return s.Status == SaleCancelled || s.Status == SaleRefunded
}

// Customer is the buyer snapshot stored on the sale.
type Customer struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// Delivery tracks fulfilment. Fee is what the courier costs the seller and never enters
// the sale totals; what the customer pays for shipping is Sale.ShippingFee.
type Delivery struct {
	Required       bool `gorm:"not null;default:false"`
	Status         string
	Address        string
	TrackingNumber string
	Date           *time.Time
	Fee            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// SaleItem is an immutable line. ProductName and ProductCode freeze display values at
// sale time so later catalog edits never change historical sales.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"not null"`
	ProductCode string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	// Subtotal = Quantity*UnitPrice - Discount + Tax
	Subtotal decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

// SalePayment is one entry of the append-only payment ledger.
type SalePayment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Method    string          `gorm:"type:varchar(20);not null"`
	Reference *string
	Notes     *string
	CreatedAt time.Time
}
