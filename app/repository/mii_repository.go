package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velomica/accounthub/app/models"
)

// miiRepository implements MiiRepository on GORM.
type miiRepository struct {
	db *gorm.DB
}

// NewMiiRepository creates a Mii repository instance
func NewMiiRepository(db *gorm.DB) MiiRepository {
	return &miiRepository{db: db}
}

// Upsert creates or replaces the Mii stored in a user's slot.
func (r *miiRepository) Upsert(mii *models.Mii) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "slot"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"payload_base64",
			"checksum",
			"updated_at",
		}),
	}).Create(mii).Error; err != nil {
		return err
	}

	return r.db.Where("user_id = ? AND slot = ?", mii.UserID, mii.Slot).First(mii).Error
}

func (r *miiRepository) GetByUserAndSlot(userID uint, slot int) (*models.Mii, error) {
	var mii models.Mii
	err := r.db.Where("user_id = ? AND slot = ?", userID, slot).First(&mii).Error
	if err != nil {
		return nil, err
	}
	return &mii, nil
}

func (r *miiRepository) ListByUser(userID uint) ([]models.Mii, error) {
	var miis []models.Mii
	err := r.db.Where("user_id = ?", userID).Order("slot").Find(&miis).Error
	return miis, err
}

func (r *miiRepository) Delete(userID uint, slot int) error {
	return r.db.Where("user_id = ? AND slot = ?", userID, slot).Delete(&models.Mii{}).Error
}
