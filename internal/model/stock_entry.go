package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock entry types.
const (
	StockAdded    = "added"
	StockRemoved  = "removed"
	StockSold     = "sold"
	StockReturned = "returned"
	StockAdjusted = "adjusted"
)

// StockEntry is one row of a product's append-only stock ledger.
// Rows are inserted alongside every quantity change and are never updated or deleted.
type StockEntry struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Type             string    `gorm:"type:varchar(20);not null"`
	Quantity         int       `gorm:"not null"` // always positive; Type carries the direction
	PreviousQuantity int       `gorm:"not null"`
	NewQuantity      int       `gorm:"not null"`
	Reason           string
	PerformedBy      uuid.UUID  `gorm:"type:uuid;not null"`
	SaleID           *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt        time.Time
}

// TableName overrides GORM's default pluralization (stock_entries → stock_history).
func (StockEntry) TableName() string { return "stock_history" }
