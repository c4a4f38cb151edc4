package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsFilter is bound from GET /v1/sales/analytics. Both bounds default to the last month.
type AnalyticsFilter struct {
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02" time_utc:"1"`
	EndDate   *time.Time `form:"end_date"   time_format:"2006-01-02" time_utc:"1"`
}

type MonthlyFilter struct {
	Year int `form:"year" validate:"omitempty,min=2000,max=2100"`
}

type SalesOverviewResponse struct {
	TotalSales         int64           `json:"total_sales"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	AverageOrderValue  decimal.Decimal `json:"average_order_value"`
	ItemsSold          int64           `json:"items_sold"`
}

type BreakdownRow struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

type SalesAnalyticsResponse struct {
	From           string                `json:"from"`
	To             string                `json:"to"`
	Overview       SalesOverviewResponse `json:"overview"`
	PaymentMethods []BreakdownRow        `json:"payment_methods"`
	Channels       []BreakdownRow        `json:"channels"`
}

type MonthBucket struct {
	Month      int             `json:"month"`
	TotalSales int64           `json:"total_sales"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type MonthlyPerformanceResponse struct {
	Year   int           `json:"year"`
	Months []MonthBucket `json:"months"`
}
