package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velomica/accounthub/app/models"
)

// linkedAccountRepository implements LinkedAccountRepository on GORM.
type linkedAccountRepository struct {
	db *gorm.DB
}

// NewLinkedAccountRepository creates a linked account repository instance
func NewLinkedAccountRepository(db *gorm.DB) LinkedAccountRepository {
	return &linkedAccountRepository{db: db}
}

// Upsert creates or refreshes an OAuth identity linkage.
func (r *linkedAccountRepository) Upsert(account *models.LinkedAccount) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "provider"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_user_id",
			"username",
			"email",
			"avatar_url",
			"updated_at",
		}),
	}).Create(account).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ? AND provider = ?", account.UserID, account.Provider).
		First(account).Error
}

func (r *linkedAccountRepository) GetByUserAndProvider(userID uint, provider string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *linkedAccountRepository) GetByProviderUserID(provider, providerUserID string) (*models.LinkedAccount, error) {
	var account models.LinkedAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *linkedAccountRepository) DeleteByUserAndProvider(userID uint, provider string) error {
	return r.db.Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&models.LinkedAccount{}).Error
}
