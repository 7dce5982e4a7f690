package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Raw record statuses. A record starts pending and is moved to exactly one
// terminal status by the pipeline; terminal records are never re-picked.
const (
	RawStatusPending   = "pending"
	RawStatusProcessed = "processed"
	RawStatusFailed    = "failed"
)

// JSONPayload stores an arbitrary key-value row as a jsonb column. The
// payload schema is not enforced at the intake layer; rows stay untyped
// until they pass validation.
type JSONPayload map[string]interface{}

func (p JSONPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *JSONPayload) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONPayload: %T", value)
	}

	return json.Unmarshal(data, p)
}

// RawRecord is an as-ingested row awaiting the ETL pipeline. The pipeline
// only ever advances Status; records are never deleted.
type RawRecord struct {
	ID         uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Source     string      `gorm:"not null" json:"source"`
	Payload    JSONPayload `gorm:"type:jsonb" json:"payload"`
	Status     string      `gorm:"not null;default:'pending';index" json:"status"`
	Error      *string     `json:"error,omitempty"`
	IngestedAt time.Time   `gorm:"not null;autoCreateTime" json:"ingested_at"`
}

func (RawRecord) TableName() string {
	return "raw_records"
}
