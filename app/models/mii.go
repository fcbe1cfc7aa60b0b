package models

import "time"

// Mii stores a user's Mii profile. The payload is the raw console binary
// blob, kept base64-encoded in the database and exported verbatim as a
// .mii download.
type Mii struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:ux_miis_user_slot,unique,priority:1" json:"user_id"`
	Slot          int       `gorm:"not null;default:0;index:ux_miis_user_slot,unique,priority:2" json:"slot"`
	Name          string    `gorm:"type:varchar(32);not null" json:"name"`
	PayloadBase64 string    `gorm:"type:text;not null" json:"-"`
	Checksum      string    `gorm:"type:varchar(64);not null;default:''" json:"checksum"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
