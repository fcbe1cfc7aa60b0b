package models

import "time"

// OAuth provider constants used for account linking.
const (
	LinkProviderDiscord = "discord"
)

// LinkedAccount stores an external OAuth identity linked to a user.
type LinkedAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index:ux_linked_accounts_user_provider,unique,priority:1" json:"user_id"`
	Provider       string    `gorm:"type:varchar(20);not null;index:ux_linked_accounts_user_provider,unique,priority:2;index:ux_linked_accounts_provider_account,unique,priority:1" json:"provider"`
	ProviderUserID string    `gorm:"type:varchar(191);not null;index:ux_linked_accounts_provider_account,unique,priority:2" json:"provider_user_id"`
	Username       string    `gorm:"type:varchar(191);default:''" json:"username"`
	Email          string    `gorm:"type:varchar(200);default:''" json:"email"`
	AvatarURL      string    `gorm:"type:varchar(255);default:''" json:"avatar_url"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
