package kpi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/udhofarhanahmed/opensight/internal/models"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SalesEvent{}))

	svc := NewService(db)
	svc.now = func() time.Time { return testNow }
	return svc
}

func seedEvent(t *testing.T, svc *Service, orderID, channel, status string, net float64, daysAgo int) {
	t.Helper()

	event := models.SalesEvent{
		OrderID:      orderID,
		CustomerID:   "CUST-1",
		Amount:       decimal.NewFromFloat(net),
		NetAmount:    decimal.NewFromFloat(net),
		Currency:     "USD",
		Channel:      channel,
		Status:       status,
		TimestampUTC: testNow.AddDate(0, 0, -daysAgo),
	}
	require.NoError(t, svc.db.Create(&event).Error)
}

func TestDailyRevenue(t *testing.T) {
	svc := testService(t)
	seedEvent(t, svc, "ORD-1", "online", models.SaleStatusCompleted, 100, 2)
	seedEvent(t, svc, "ORD-2", "online", models.SaleStatusCompleted, 50, 2)
	seedEvent(t, svc, "ORD-3", "retail", models.SaleStatusCompleted, 25, 1)
	// Outside the window and non-completed rows are excluded.
	seedEvent(t, svc, "ORD-4", "online", models.SaleStatusCompleted, 999, 10)
	seedEvent(t, svc, "ORD-5", "online", models.SaleStatusCancelled, 999, 1)

	rows, err := svc.DailyRevenue(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, testNow.AddDate(0, 0, -2).Format("2006-01-02"), rows[0].Day)
	assert.InDelta(t, 150, rows[0].Revenue, 0.001)
	assert.InDelta(t, 25, rows[1].Revenue, 0.001)
}

func TestSummaryWithPriorPeriod(t *testing.T) {
	svc := testService(t)
	// Current 7-day window: 2 orders, 300 revenue.
	seedEvent(t, svc, "ORD-1", "online", models.SaleStatusCompleted, 100, 1)
	seedEvent(t, svc, "ORD-2", "online", models.SaleStatusCompleted, 200, 3)
	// Prior window: 1 order, 200 revenue.
	seedEvent(t, svc, "ORD-3", "online", models.SaleStatusCompleted, 200, 10)

	summary, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)

	assert.InDelta(t, 300, summary.TotalRevenue, 0.001)
	assert.Equal(t, int64(2), summary.TotalOrders)
	assert.InDelta(t, 150, summary.AvgOrderValue, 0.001)
	assert.InDelta(t, 50, summary.RevenueChange, 0.001)
	assert.InDelta(t, 100, summary.OrdersChange, 0.001)
	assert.InDelta(t, -25, summary.AOVChange, 0.001)
}

func TestSummaryZeroPriorPeriod(t *testing.T) {
	svc := testService(t)
	seedEvent(t, svc, "ORD-1", "online", models.SaleStatusCompleted, 100, 1)

	summary, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)

	assert.InDelta(t, 100, summary.TotalRevenue, 0.001)
	assert.Zero(t, summary.RevenueChange)
	assert.Zero(t, summary.OrdersChange)
	assert.Zero(t, summary.AOVChange)
}

func TestSummaryEmptyTable(t *testing.T) {
	svc := testService(t)

	summary, err := svc.Summary(context.Background(), 7)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.TotalOrders)
	assert.Zero(t, summary.AvgOrderValue)
}

func TestChannelBreakdown(t *testing.T) {
	svc := testService(t)
	seedEvent(t, svc, "ORD-1", "online", models.SaleStatusCompleted, 100, 1)
	seedEvent(t, svc, "ORD-2", "online", models.SaleStatusCompleted, 50, 2)
	seedEvent(t, svc, "ORD-3", "retail", models.SaleStatusCompleted, 400, 1)

	rows, err := svc.ChannelBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "retail", rows[0].Channel)
	assert.InDelta(t, 400, rows[0].Revenue, 0.001)
	assert.Equal(t, "online", rows[1].Channel)
	assert.Equal(t, int64(2), rows[1].Orders)
	assert.InDelta(t, 150, rows[1].Revenue, 0.001)
}
