package models

import "time"

// BillingWebhookEvent stores received billing events for auditing. The
// provider event id is unique so redeliveries land on the same row; the
// ordering watermark on BillingProfile is what guards correctness.
type BillingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;default:'';uniqueIndex" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	CustomerID      string     `gorm:"type:varchar(191);not null;default:'';index" json:"customer_id"`
	EventTimestamp  int64      `gorm:"not null;default:0" json:"event_timestamp"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Processed reports whether this event already went through a completed
// reconciliation run. A row whose run ended in an error does not count;
// a redelivery of such an event is reconciled again.
func (e *BillingWebhookEvent) Processed() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}
