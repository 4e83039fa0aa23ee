package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthType string

const (
	AuthTypeEmail    AuthType = "email"
	AuthTypeFacebook AuthType = "facebook"
	AuthTypeGoogle   AuthType = "google"
	AuthTypeApple    AuthType = "apple"
)

func (a AuthType) IsSocial() bool {
	switch a {
	case AuthTypeFacebook, AuthTypeGoogle, AuthTypeApple:
		return true
	}
	return false
}

// Settings holds per-user auth state. At most one row per (auth_type, social_id)
// and at most one live refresh token per user.
type Settings struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	AuthType     AuthType  `gorm:"size:20;not null;default:'email';uniqueIndex:idx_settings_social" json:"auth_type"`
	SocialID     *string   `gorm:"size:255;uniqueIndex:idx_settings_social" json:"-"`
	RefreshToken *string   `gorm:"type:text" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (s *Settings) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
