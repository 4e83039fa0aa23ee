// Package repository persists accounts and their auth settings with GORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByEmail returns the active account owning email, password hash included.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ?", email))
}

// FindBySocial returns the active account linked to (kind, socialID).
func (r *UserRepository) FindBySocial(ctx context.Context, kind models.AuthType, socialID string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).
		Where("id IN (?)", r.socialUserIDs(ctx, kind, socialID)))
}

// IsEmailCanceled reports whether email belongs to a withdrawn (soft-deleted) account.
func (r *UserRepository) IsEmailCanceled(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).
		Where("email = ? AND deleted_at IS NOT NULL", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check canceled email: %w", err)
	}
	return count > 0, nil
}

// EmailOwnedByOther reports whether an active account other than the one
// linked to (kind, socialID) already uses email.
func (r *UserRepository) EmailOwnedByOther(ctx context.Context, email string, kind models.AuthType, socialID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("LEFT JOIN settings ON settings.user_id = users.id").
		Where("users.email = ?", email).
		Where("settings.id IS NULL OR settings.auth_type <> ? OR settings.social_id IS NULL OR settings.social_id <> ?", kind, socialID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email owner: %w", err)
	}
	return count > 0, nil
}

// DisplayNameTaken compares case-insensitively and ignores exceptUserID.
func (r *UserRepository) DisplayNameTaken(ctx context.Context, displayName, exceptUserID string) (bool, error) {
	except, _ := uuid.Parse(exceptUserID)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(display_name) = LOWER(?) AND id <> ?", displayName, except).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check display name: %w", err)
	}
	return count > 0, nil
}

// Create inserts user and its Settings in one transaction. A unique
// constraint violation is reported as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Settings").Create(user).Error; err != nil {
			return err
		}
		if user.Settings == nil {
			user.Settings = &models.Settings{AuthType: models.AuthTypeEmail}
		}
		user.Settings.UserID = user.ID
		return tx.Create(user.Settings).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// TouchLastSignedIn stamps the account with id userID.
func (r *UserRepository) TouchLastSignedIn(ctx context.Context, userID string, at time.Time) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_signed_in", at).Error
}

// TouchLastSignedInBySocial stamps every account linked to (kind, socialID).
func (r *UserRepository) TouchLastSignedInBySocial(ctx context.Context, kind models.AuthType, socialID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN (?)", r.socialUserIDs(ctx, kind, socialID)).
		Update("last_signed_in", at).Error
}

// Update applies column updates to the account. Keys are column names.
func (r *UserRepository) Update(ctx context.Context, userID string, updates map[string]any) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HardDelete removes the account and its settings row permanently.
func (r *UserRepository) HardDelete(ctx context.Context, userID string) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", id).Delete(&models.Settings{}).Error; err != nil {
			return fmt.Errorf("failed to delete settings: %w", err)
		}
		res := tx.Unscoped().Where("id = ?", id).Delete(&models.User{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpsertRefreshToken replaces the stored refresh token of userID.
func (r *UserRepository) UpsertRefreshToken(ctx context.Context, userID, token string) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}

	settings := &models.Settings{UserID: id, AuthType: models.AuthTypeEmail, RefreshToken: &token}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"refresh_token", "updated_at"}),
	}).Create(settings).Error
}

// FindRefreshToken returns "" when userID has none stored.
func (r *UserRepository) FindRefreshToken(ctx context.Context, userID string) (string, error) {
	id, err := parseID(userID)
	if err != nil {
		return "", nil
	}

	var settings models.Settings
	err = r.db.WithContext(ctx).Select("refresh_token").Where("user_id = ?", id).Take(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load refresh token: %w", err)
	}
	if settings.RefreshToken == nil {
		return "", nil
	}
	return *settings.RefreshToken, nil
}

func (r *UserRepository) socialUserIDs(ctx context.Context, kind models.AuthType, socialID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Settings{}).
		Select("user_id").
		Where("auth_type = ? AND social_id = ?", kind, socialID)
}

func (r *UserRepository) first(q *gorm.DB) (*models.User, error) {
	var user models.User
	err := q.Preload("Settings").Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// parseID treats malformed ids as unknown accounts.
func parseID(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, ErrNotFound
	}
	return id, nil
}
