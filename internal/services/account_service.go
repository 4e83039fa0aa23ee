package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/background"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/credential"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/observability"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/repository"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/storage"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
)

const minPasswordLength = 8

var (
	errInvalidEmail  = errors.New("email address is invalid")
	errShortPassword = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Gender   *string
}

// ProfileInput lists the editable profile fields; nil leaves a field as is.
type ProfileInput struct {
	DisplayName *string
	Name        *string
	Gender      *string
	Phone       *string
	Birthday    *time.Time
}

// AccountService composes email accounts and profile changes from the
// credential codec, token service, store and blob storage.
type AccountService struct {
	store    UserStore
	tokens   *token.Service
	codec    *credential.Codec
	blob     storage.Blob
	runner   *background.Runner
	reporter observability.Reporter
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewAccountService(store UserStore, tokens *token.Service, codec *credential.Codec, blob storage.Blob, runner *background.Runner, reporter observability.Reporter, metrics *observability.Metrics) *AccountService {
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &AccountService{
		store:    store,
		tokens:   tokens,
		codec:    codec,
		blob:     blob,
		runner:   runner,
		reporter: reporter,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SignUp registers an email account. An email that belonged to a withdrawn
// account fails with UserCanceledAccount rather than EmailAlreadyExists.
func (s *AccountService) SignUp(ctx context.Context, c caller.Info, input SignUpInput, image *Upload) (*models.User, error) {
	email := strings.TrimSpace(input.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, errInvalidEmail)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, errShortPassword)
	}

	canceled, err := s.store.IsEmailCanceled(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUserCreateFailed, err)
	}
	if canceled {
		return nil, apperr.New(apperr.CodeUserCanceledAccount)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.CodeEmailAlreadyExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Wrap(apperr.CodeUserCreateFailed, err)
	}

	hashed, err := s.codec.Encrypt(input.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUserCreateFailed, err)
	}

	user := &models.User{
		Name:     input.Name,
		Email:    &email,
		Password: &hashed,
		Gender:   input.Gender,
		Locale:   c.Locale.String(),
		Settings: &models.Settings{AuthType: models.AuthTypeEmail},
	}

	if image != nil {
		photoURL, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		user.PhotoURL = &photoURL
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.CodeEmailAlreadyExists, err)
		}
		return nil, apperr.Wrap(apperr.CodeUserCreateFailed, err)
	}

	user.Password = nil
	return user, nil
}

// SignInEmail checks email credentials and issues an access and refresh token.
// The last sign-in stamp is written in the background.
func (s *AccountService) SignInEmail(ctx context.Context, c caller.Info, email, password string) (*AuthPayload, error) {
	user, err := s.store.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		s.count("rejected")
		return nil, apperr.New(apperr.CodeUserNotFound)
	}
	if err != nil {
		s.count("error")
		return nil, apperr.Wrap(apperr.CodeUnknown, err)
	}

	if user.Password == nil || *user.Password == "" {
		s.count("rejected")
		return nil, apperr.New(apperr.CodeIsSocialUser)
	}

	ok, err := s.codec.Validate(password, *user.Password)
	if err != nil {
		s.count("error")
		return nil, apperr.Wrap(apperr.CodeUnknown, err)
	}
	if !ok {
		s.count("rejected")
		return nil, apperr.New(apperr.CodePasswordIncorrect)
	}

	user.Password = nil
	userID := user.ID.String()

	at := s.now()
	s.runner.Spawn(ctx, "last_signed_in", s.event(c, "lastSignedIn update failed", userID), func(ctx context.Context) error {
		return s.store.TouchLastSignedIn(ctx, userID, at)
	})

	accessToken, err := s.tokens.Issue(ctx, userID, true)
	if err != nil {
		s.count("error")
		return nil, apperr.Wrap(apperr.CodeUnknown, err)
	}

	s.count("ok")
	return &AuthPayload{Token: accessToken, User: user}, nil
}

// UpdateProfile applies input to the caller's account. Removing or replacing
// the profile image deletes the old blobs in the background; a failed removal
// never blocks the update.
func (s *AccountService) UpdateProfile(ctx context.Context, c caller.Info, input ProfileInput, image *Upload, deleteImage bool) (*models.User, error) {
	if !c.Authenticated() {
		return nil, apperr.New(apperr.CodeNotAuthorized)
	}

	current, err := s.store.FindByID(ctx, c.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.CodeUserNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnknown, err)
	}

	if input.DisplayName != nil && *input.DisplayName != "" {
		taken, err := s.store.DisplayNameTaken(ctx, *input.DisplayName, c.UserID)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeUnknown, err)
		}
		if taken {
			return nil, apperr.New(apperr.CodeDisplayNameExists)
		}
	}

	if current.PhotoURL != nil && (deleteImage || image != nil) {
		s.removeImages(ctx, c, current)
		if err := s.store.Update(ctx, c.UserID, map[string]any{"photo_url": nil, "thumb_url": nil}); err != nil {
			return nil, apperr.Wrap(apperr.CodeUnknown, err)
		}
	}

	updates := map[string]any{}
	if image != nil {
		photoURL, err := s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		updates["photo_url"] = photoURL
	}
	if input.DisplayName != nil {
		updates["display_name"] = *input.DisplayName
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Gender != nil {
		updates["gender"] = *input.Gender
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Birthday != nil {
		updates["birthday"] = *input.Birthday
	}

	if err := s.store.Update(ctx, c.UserID, updates); err != nil {
		return nil, apperr.Wrap(apperr.CodeUnknown, err)
	}

	updated, err := s.store.FindByID(ctx, c.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnknown, err)
	}
	updated.Password = nil
	return updated, nil
}

// WithdrawUser permanently deletes the caller's account.
func (s *AccountService) WithdrawUser(ctx context.Context, c caller.Info) error {
	if !c.Authenticated() {
		return apperr.New(apperr.CodeNotAuthorized)
	}

	if err := s.store.HardDelete(ctx, c.UserID); err != nil {
		report(ctx, s.reporter, c, "withdrawUser failed", c.UserID, err)
		return apperr.Wrap(apperr.CodeUnknown, err)
	}
	return nil
}

// Me returns the caller's account.
func (s *AccountService) Me(ctx context.Context, c caller.Info) (*models.User, error) {
	if !c.Authenticated() {
		return nil, apperr.New(apperr.CodeNotAuthorized)
	}

	user, err := s.store.FindByID(ctx, c.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.New(apperr.CodeUserNotFound)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnknown, err)
	}
	user.Password = nil
	return user, nil
}

func (s *AccountService) upload(ctx context.Context, image *Upload) (string, error) {
	url, err := s.blob.Upload(ctx, image.Reader, image.Size, image.ContentType, imageDir, uuid.NewString())
	if err != nil {
		return "", apperr.Wrap(apperr.CodeUploadFailed, err)
	}
	return url, nil
}

func (s *AccountService) removeImages(ctx context.Context, c caller.Info, user *models.User) {
	for _, u := range []*string{user.PhotoURL, user.ThumbURL} {
		if u == nil || *u == "" {
			continue
		}
		blobURL := *u
		s.runner.Spawn(ctx, "image_cleanup", s.event(c, "image removal failed", c.UserID), func(ctx context.Context) error {
			_, err := s.blob.Remove(ctx, blobURL)
			return err
		})
	}
}

func (s *AccountService) event(c caller.Info, msg, userID string) observability.Event {
	return observability.Event{Message: msg, UserID: userID, CorrelationID: c.CorrelationID}
}

func (s *AccountService) count(result string) {
	s.metrics.SignIns.WithLabelValues(string(models.AuthTypeEmail), result).Inc()
}
