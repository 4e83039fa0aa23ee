package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the account identity record. Email is optional for social accounts
// and unique among active (not soft-deleted) rows.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        *string        `gorm:"size:255;uniqueIndex:idx_users_active_email,where:deleted_at IS NULL" json:"email"`
	Password     *string        `gorm:"size:255" json:"-"`
	Name         string         `gorm:"size:255" json:"name"`
	DisplayName  *string        `gorm:"size:100;index" json:"display_name"`
	Gender       *string        `gorm:"size:20" json:"gender"`
	Birthday     *time.Time     `json:"birthday"`
	Phone        *string        `gorm:"size:50" json:"phone"`
	PhotoURL     *string        `gorm:"type:text" json:"photo_url"`
	ThumbURL     *string        `gorm:"type:text" json:"thumb_url"`
	VerifiedAt   *time.Time     `json:"verified_at"`
	LastSignedIn *time.Time     `json:"last_signed_in"`
	Locale       string         `gorm:"size:20" json:"locale"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Settings     *Settings      `gorm:"constraint:OnDelete:CASCADE" json:"settings,omitempty"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
