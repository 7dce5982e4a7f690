// Package kpi aggregates canonical sales events into the business metrics
// the dashboard and insight rules consume.
package kpi

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/models"
)

// Service answers KPI queries against the sales_events table.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// DailyRevenue is one calendar day of completed-order revenue.
type DailyRevenue struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
}

// Summary holds headline metrics for a period with percentage deltas
// against the immediately preceding period of the same length.
type Summary struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalOrders   int64   `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	RevenueChange float64 `json:"revenue_change"`
	OrdersChange  float64 `json:"orders_change"`
	AOVChange     float64 `json:"aov_change"`
}

// ChannelStats is the per-channel order count and revenue breakdown.
type ChannelStats struct {
	Channel string  `json:"channel"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// dayExpr renders timestamp_utc as a YYYY-MM-DD string. Postgres in
// production; the sqlite branch keeps store-backed tests runnable without a
// server.
func (s *Service) dayExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d', timestamp_utc)"
	}
	return "to_char(timestamp_utc, 'YYYY-MM-DD')"
}

// DailyRevenue returns completed-order revenue grouped by calendar day for
// the trailing window, oldest day first. Days with no orders are absent.
func (s *Service) DailyRevenue(ctx context.Context, days int) ([]DailyRevenue, error) {
	start := s.now().UTC().AddDate(0, 0, -days)

	var rows []DailyRevenue
	err := s.db.WithContext(ctx).
		Table("sales_events").
		Select(s.dayExpr()+" AS day, COALESCE(SUM(net_amount), 0) AS revenue").
		Where("timestamp_utc >= ? AND status = ?", start, models.SaleStatusCompleted).
		Group(s.dayExpr()).
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}

	return rows, nil
}

type periodTotals struct {
	Revenue float64
	Orders  int64
}

func (s *Service) periodTotals(ctx context.Context, start, end time.Time) (periodTotals, error) {
	var totals periodTotals
	err := s.db.WithContext(ctx).
		Table("sales_events").
		Select("COALESCE(SUM(net_amount), 0) AS revenue, COUNT(id) AS orders").
		Where("timestamp_utc >= ? AND timestamp_utc < ? AND status = ?",
			start, end, models.SaleStatusCompleted).
		Scan(&totals).Error
	if err != nil {
		return totals, fmt.Errorf("failed to query period totals: %w", err)
	}
	return totals, nil
}

// Summary computes headline metrics for the trailing window and percentage
// deltas against the preceding window. A zero-valued prior period yields a
// zero delta rather than a division error.
func (s *Service) Summary(ctx context.Context, days int) (*Summary, error) {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -days)
	prevStart := start.AddDate(0, 0, -days)

	current, err := s.periodTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	previous, err := s.periodTotals(ctx, prevStart, start)
	if err != nil {
		return nil, err
	}

	currentAOV := avgOrderValue(current)
	previousAOV := avgOrderValue(previous)

	return &Summary{
		TotalRevenue:  current.Revenue,
		TotalOrders:   current.Orders,
		AvgOrderValue: currentAOV,
		RevenueChange: percentChange(current.Revenue, previous.Revenue),
		OrdersChange:  percentChange(float64(current.Orders), float64(previous.Orders)),
		AOVChange:     percentChange(currentAOV, previousAOV),
	}, nil
}

// ChannelBreakdown returns order count and revenue per channel across all
// canonical events, highest revenue first.
func (s *Service) ChannelBreakdown(ctx context.Context) ([]ChannelStats, error) {
	var rows []ChannelStats
	err := s.db.WithContext(ctx).
		Table("sales_events").
		Select("channel, COUNT(id) AS orders, COALESCE(SUM(net_amount), 0) AS revenue").
		Group("channel").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query channel breakdown: %w", err)
	}
	return rows, nil
}

func avgOrderValue(t periodTotals) float64 {
	if t.Orders == 0 {
		return 0
	}
	return t.Revenue / float64(t.Orders)
}

func percentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
