package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velomica/accounthub/app/models"
)

// ErrCustomerConflict is returned when a billing profile already carries a
// different customer id. Customer ids are set once and never reassigned.
var ErrCustomerConflict = errors.New("billing profile already bound to a different customer")

// billingRepository implements BillingRepository on GORM.
type billingRepository struct {
	db *gorm.DB
}

// NewBillingRepository creates a billing repository backed by GORM.
func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

// GetOrCreateProfile returns the billing sub-record for a user, creating an
// empty one on first use.
func (r *billingRepository) GetOrCreateProfile(userID uint) (*models.BillingProfile, error) {
	var profile models.BillingProfile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile = models.BillingProfile{UserID: userID}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&profile).Error; err != nil {
		return nil, err
	}
	// Re-read so a concurrent creator's row wins consistently.
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *billingRepository) GetProfile(userID uint) (*models.BillingProfile, error) {
	var profile models.BillingProfile
	if err := r.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *billingRepository) GetProfileByCustomerID(customerID string) (*models.BillingProfile, error) {
	var profile models.BillingProfile
	if err := r.db.Where("customer_id = ? AND customer_id <> ''", customerID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetCustomer binds a provider customer id to the user's billing profile and
// resets the event watermark: a fresh customer association invalidates all
// prior watermark history. Rebinding to a different customer is refused.
func (r *billingRepository) SetCustomer(userID uint, customerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var profile models.BillingProfile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.BillingProfile{UserID: userID, CustomerID: customerID}
			return tx.Create(&profile).Error
		}
		if err != nil {
			return err
		}
		if profile.CustomerID == customerID {
			return nil
		}
		if profile.CustomerID != "" {
			return ErrCustomerConflict
		}
		return tx.Model(&profile).Updates(map[string]interface{}{
			"customer_id":              customerID,
			"latest_webhook_timestamp": 0,
		}).Error
	})
}

// ApplyTransition applies the tier fields and the advanced watermark as one
// conditional update, then adjusts the user's access level unless the
// account is staff. The WHERE clause on the stored watermark makes stale or
// duplicate events a no-op and serializes concurrent writers per user.
// Returns whether the transition was applied.
func (r *billingRepository) ApplyTransition(userID uint, t BillingTransition) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BillingProfile{}).
			Where("user_id = ? AND latest_webhook_timestamp < ?", userID, t.EventTimestamp).
			Updates(map[string]interface{}{
				"subscription_id":          t.SubscriptionID,
				"price_id":                 t.PriceID,
				"tier_name":                t.TierName,
				"tier_level":               t.TierLevel,
				"latest_webhook_timestamp": t.EventTimestamp,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Stale event, or no billing profile exists yet.
			return nil
		}
		applied = true

		// Staff accounts (access_level >= 2) keep their level untouched.
		return tx.Model(&models.User{}).
			Where("id = ? AND access_level < ?", userID, 2).
			Update("access_level", t.AccessLevel).Error
	})
	return applied, err
}

// RecordWebhookEvent persists a received event idempotently by provider
// event id. Returns whether a new row was created plus the stored row.
func (r *billingRepository) RecordWebhookEvent(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider_event_id = ?", event.ProviderEventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkWebhookProcessed marks an audit row as processed with an optional error.
func (r *billingRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
