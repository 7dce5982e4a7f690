package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sales event statuses as reported by the source system.
const (
	SaleStatusCompleted = "completed"
	SaleStatusPending   = "pending"
	SaleStatusCancelled = "cancelled"
)

// ParseSaleStatus normalizes a free-form status string from an uploaded row.
// Unknown values default to completed, matching how the source systems
// report finalized orders without a status column.
func ParseSaleStatus(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SaleStatusCompleted, nil
	}

	for _, status := range []string{SaleStatusCompleted, SaleStatusPending, SaleStatusCancelled} {
		if status == name {
			return status, nil
		}
	}

	return "", fmt.Errorf("unknown sale status: %s", name)
}

// SalesEvent is a validated, currency-normalized sales transaction in the
// canonical schema. Append-only: created exactly once per successfully
// processed RawRecord, never mutated, never deleted. OrderID is unique
// across all events (enforced by the database).
type SalesEvent struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      string          `gorm:"uniqueIndex;not null" json:"order_id"`
	CustomerID   string          `gorm:"index;not null" json:"customer_id"`
	CustomerName string          `json:"customer_name,omitempty"`
	ProductID    string          `gorm:"index" json:"product_id"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,4)" json:"amount"`
	Currency     string          `gorm:"not null;default:'USD'" json:"currency"`
	NetAmount    decimal.Decimal `gorm:"type:numeric(18,4)" json:"net_amount"`
	Channel      string          `json:"channel"`
	Status       string          `gorm:"index" json:"status"`
	TimestampUTC time.Time       `gorm:"index;not null" json:"timestamp_utc"`
	RawRecordID  uint64          `gorm:"not null" json:"raw_record_id"`
	RawRecord    RawRecord       `gorm:"foreignKey:RawRecordID" json:"raw_record,omitempty"`
	CreatedAt    time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (SalesEvent) TableName() string {
	return "sales_events"
}
