package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaleOrder(t *testing.T) {
	for sortBy, want := range map[string]string{
		"":              "sale_date DESC, id DESC",
		"-sale_date":    "sale_date DESC, id DESC",
		"sale_date":     "sale_date ASC, id ASC",
		"-total_amount": "total_amount DESC, id DESC",
		"sale_number":   "sale_number ASC, id ASC",
		"created_at":    "created_at ASC, id ASC",
		"customer_name": "sale_date DESC, id DESC",
		"-":             "sale_date DESC, id DESC",
		"id; DROP":      "sale_date DESC, id DESC",
	} {
		assert.Equal(t, want, saleOrder(sortBy), sortBy)
	}
}
