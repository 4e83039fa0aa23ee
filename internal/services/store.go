package services

import (
	"context"
	"io"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

// UserStore is the persistence the account services need. Lookups return
// repository.ErrNotFound when nothing matches; Create returns
// repository.ErrDuplicate on a unique constraint violation.
type UserStore interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindBySocial(ctx context.Context, kind models.AuthType, socialID string) (*models.User, error)
	IsEmailCanceled(ctx context.Context, email string) (bool, error)
	EmailOwnedByOther(ctx context.Context, email string, kind models.AuthType, socialID string) (bool, error)
	DisplayNameTaken(ctx context.Context, displayName, exceptUserID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	TouchLastSignedIn(ctx context.Context, userID string, at time.Time) error
	TouchLastSignedInBySocial(ctx context.Context, kind models.AuthType, socialID string, at time.Time) error
	Update(ctx context.Context, userID string, updates map[string]any) error
	HardDelete(ctx context.Context, userID string) error
}

// AuthPayload is returned by every successful sign-in.
type AuthPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Upload is an image supplied with a sign-up or profile update.
type Upload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

const imageDir = "users"
