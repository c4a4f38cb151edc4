package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"backoffice/internal/dto"
	"backoffice/internal/repository"

	"github.com/shopspring/decimal"
)

// ReportService aggregates completed sales for dashboards.
type ReportService interface {
	Analytics(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) (*dto.SalesAnalyticsResponse, error)
	MonthlyPerformance(ctx context.Context, actor Actor, year int) (*dto.MonthlyPerformanceResponse, error)
}

type reportService struct {
	sales repository.SaleRepository
	cache *ReportCache
	now   func() time.Time
}

func NewReportService(sales repository.SaleRepository, cache *ReportCache) ReportService {
	return &reportService{
		sales: sales,
		cache: cache,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// endOfDay returns the last instant of the day that starts at d, so a date-only upper
// bound includes sales made during that day.
func endOfDay(d time.Time) time.Time {
	return d.Add(24*time.Hour - time.Nanosecond)
}

// analyticsRange resolves the requested window. Missing bounds default to the last month
// ending now; an end date covers its whole day.
func analyticsRange(filter dto.AnalyticsFilter, now time.Time) (time.Time, time.Time, error) {
	to := now
	if filter.EndDate != nil {
		to = endOfDay(*filter.EndDate)
	}
	from := to.AddDate(0, -1, 0)
	if filter.StartDate != nil {
		from = *filter.StartDate
	}
	if from.After(to) {
		return from, to, validationf("start_date must not be after end_date")
	}
	return from, to, nil
}

func (s *reportService) Analytics(ctx context.Context, actor Actor, filter dto.AnalyticsFilter) (*dto.SalesAnalyticsResponse, error) {
	from, to, err := analyticsRange(filter, s.now())
	if err != nil {
		return nil, err
	}

	params := fmt.Sprintf("%d-%d", from.Unix(), to.Unix())
	if filter.EndDate == nil {
		// Open-ended windows move with the clock; round to the minute so they can still be cached.
		params = fmt.Sprintf("%d-now", from.Truncate(time.Minute).Unix())
	}
	var cached dto.SalesAnalyticsResponse
	cacheKey, hit := s.cache.load(ctx, actor.OwnerID, "analytics", params, &cached)
	if hit {
		return &cached, nil
	}

	overview, err := s.sales.Overview(ctx, actor.OwnerID, from, to)
	if err != nil {
		return nil, err
	}
	methods, err := s.sales.Breakdown(ctx, actor.OwnerID, "payment_method", from, to)
	if err != nil {
		return nil, err
	}
	channels, err := s.sales.Breakdown(ctx, actor.OwnerID, "channel", from, to)
	if err != nil {
		return nil, err
	}

	resp := &dto.SalesAnalyticsResponse{
		From: formatTime(from),
		To:   formatTime(to),
		Overview: dto.SalesOverviewResponse{
			TotalSales:         overview.TotalSales,
			TotalRevenue:       overview.TotalRevenue,
			TotalPaid:          overview.TotalPaid,
			OutstandingBalance: overview.OutstandingBalance,
			AverageOrderValue:  decimal.Zero,
			ItemsSold:          overview.ItemsSold,
		},
		PaymentMethods: breakdownRows(methods),
		Channels:       breakdownRows(channels),
	}
	if overview.TotalSales > 0 {
		resp.Overview.AverageOrderValue = overview.TotalRevenue.
			Div(decimal.NewFromInt(overview.TotalSales)).Round(2)
	}

	s.cache.store(ctx, cacheKey, resp)
	return resp, nil
}

func breakdownRows(in []repository.GroupTotal) []dto.BreakdownRow {
	out := make([]dto.BreakdownRow, 0, len(in))
	for _, g := range in {
		out = append(out, dto.BreakdownRow{Key: g.Key, Total: g.Total, Count: g.Count})
	}
	return out
}

// MonthlyPerformance always returns twelve buckets; months without sales are zero.
func (s *reportService) MonthlyPerformance(ctx context.Context, actor Actor, year int) (*dto.MonthlyPerformanceResponse, error) {
	if year == 0 {
		year = s.now().Year()
	}
	if year < 2000 || year > 2100 {
		return nil, validationf("year %d out of range", year)
	}

	params := strconv.Itoa(year)
	var cached dto.MonthlyPerformanceResponse
	cacheKey, hit := s.cache.load(ctx, actor.OwnerID, "monthly", params, &cached)
	if hit {
		return &cached, nil
	}

	rows, err := s.sales.Monthly(ctx, actor.OwnerID, year)
	if err != nil {
		return nil, err
	}

	resp := &dto.MonthlyPerformanceResponse{Year: year, Months: make([]dto.MonthBucket, 12)}
	for i := range resp.Months {
		resp.Months[i] = dto.MonthBucket{Month: i + 1, Revenue: decimal.Zero}
	}
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		resp.Months[r.Month-1] = dto.MonthBucket{Month: r.Month, TotalSales: r.TotalSales, Revenue: r.Revenue}
	}

	s.cache.store(ctx, cacheKey, resp)
	return resp, nil
}
