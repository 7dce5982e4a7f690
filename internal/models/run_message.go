package models

// RunMessage is published to the ETL queue after an upload lands, telling
// the dispatcher that new pending records are waiting.
type RunMessage struct {
	Source      string `json:"source"`
	RecordCount int    `json:"record_count"`
}
