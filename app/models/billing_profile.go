package models

import "time"

// BillingProfile is the billing sub-record of an account. It is created
// lazily with empty fields, populated on first checkout, updated on every
// accepted webhook event and cleared (not deleted) on cancellation.
//
// LatestWebhookTimestamp is the watermark of the last applied billing event
// (unix seconds). It only ever moves forward; events at or below it are
// treated as already applied.
type BillingProfile struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	UserID                 uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CustomerID             string    `gorm:"type:varchar(191);default:'';index" json:"customer_id"`
	SubscriptionID         string    `gorm:"type:varchar(191);default:''" json:"subscription_id"`
	PriceID                string    `gorm:"type:varchar(191);default:''" json:"price_id"`
	TierName               string    `gorm:"type:varchar(50);default:''" json:"tier_name"`
	TierLevel              int       `gorm:"not null;default:0" json:"tier_level"`
	LatestWebhookTimestamp int64     `gorm:"not null;default:0" json:"latest_webhook_timestamp"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Subscribed reports whether the profile currently carries an active
// subscription. SubscriptionID and TierLevel change together or not at all.
func (p *BillingProfile) Subscribed() bool {
	return p.SubscriptionID != ""
}

// Consistent verifies the subscription/tier pairing invariant.
func (p *BillingProfile) Consistent() bool {
	return (p.SubscriptionID != "") == (p.TierLevel > 0)
}
