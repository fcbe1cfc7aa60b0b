package repository

import (
	"github.com/velomica/accounthub/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetAccessLevel(id uint) (int, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// BillingTransition is the atomic field set applied to an account's billing
// sub-record by an accepted event. Empty subscription fields together with
// TierLevel 0 describe the unsubscribed state.
type BillingTransition struct {
	SubscriptionID string
	PriceID        string
	TierName       string
	TierLevel      int
	AccessLevel    int
	EventTimestamp int64
}

// BillingRepository defines billing sub-record operations. ApplyTransition
// is the single mutation path for tier fields: a conditional atomic update
// keyed on the event-timestamp watermark, which both rejects stale events
// and serializes concurrent writers per user.
type BillingRepository interface {
	GetOrCreateProfile(userID uint) (*models.BillingProfile, error)
	GetProfile(userID uint) (*models.BillingProfile, error)
	GetProfileByCustomerID(customerID string) (*models.BillingProfile, error)
	SetCustomer(userID uint, customerID string) error
	ApplyTransition(userID uint, t BillingTransition) (bool, error)
	RecordWebhookEvent(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

// LinkedAccountRepository defines OAuth identity linkage operations
type LinkedAccountRepository interface {
	Upsert(account *models.LinkedAccount) error
	GetByUserAndProvider(userID uint, provider string) (*models.LinkedAccount, error)
	GetByProviderUserID(provider, providerUserID string) (*models.LinkedAccount, error)
	DeleteByUserAndProvider(userID uint, provider string) error
}

// MiiRepository defines Mii profile storage operations
type MiiRepository interface {
	Upsert(mii *models.Mii) error
	GetByUserAndSlot(userID uint, slot int) (*models.Mii, error)
	ListByUser(userID uint) ([]models.Mii, error)
	Delete(userID uint, slot int) error
}
