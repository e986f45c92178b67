package report

import (
	"context"
	"fmt"
	"time"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// DailyRevenue is the sum of sale totals for one calendar date
type DailyRevenue struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total_revenue"`
	Sales int             `json:"sales"`
}

// SalesSource is the read side of the transaction log
type SalesSource interface {
	ListSales(ctx context.Context) ([]db.Sale, error)
	ListSalesBetween(ctx context.Context, from, to time.Time) ([]db.Sale, error)
}

// Service produces read-only reports over the transaction log
type Service struct {
	sales SalesSource
	loc   *time.Location
	log   *zap.Logger
}

// NewService creates a reporting service. Calendar dates are taken in loc.
func NewService(sales SalesSource, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{sales: sales, loc: loc, log: log}
}

// ListSales returns every sale, newest first
func (s *Service) ListSales(ctx context.Context) ([]db.Sale, error) {
	return s.sales.ListSales(ctx)
}

// DailyRevenue groups sales by calendar date, newest date first
func (s *Service) DailyRevenue(ctx context.Context) ([]DailyRevenue, error) {
	sales, err := s.sales.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}

	// sales arrive newest first, so dates are appended in descending order
	days := []DailyRevenue{}
	index := map[string]int{}
	for _, sale := range sales {
		date := sale.SoldAt.In(s.loc).Format(dateLayout)
		i, ok := index[date]
		if !ok {
			i = len(days)
			index[date] = i
			days = append(days, DailyRevenue{Date: date, Total: decimal.Zero})
		}
		days[i].Total = days[i].Total.Add(sale.Total)
		days[i].Sales++
	}

	return days, nil
}

// Summary returns the revenue for the calendar date containing day
func (s *Service) Summary(ctx context.Context, day time.Time) (DailyRevenue, error) {
	local := day.In(s.loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	sales, err := s.sales.ListSalesBetween(ctx, from, to)
	if err != nil {
		return DailyRevenue{}, fmt.Errorf("load sales for %s: %w", from.Format(dateLayout), err)
	}

	summary := DailyRevenue{Date: from.Format(dateLayout), Total: decimal.Zero}
	for _, sale := range sales {
		summary.Total = summary.Total.Add(sale.Total)
		summary.Sales++
	}

	s.log.Debug("Daily summary computed",
		zap.String("date", summary.Date),
		zap.Int("sales", summary.Sales),
		zap.String("total", summary.Total.String()),
	)
	return summary, nil
}
