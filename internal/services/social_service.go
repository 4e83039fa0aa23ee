package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/caller"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/identity"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/observability"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/repository"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
)

// SocialUserInput is a verified external identity ready to be bound to a
// local account.
type SocialUserInput struct {
	SocialID string
	AuthType models.AuthType
	Name     string
	Email    string
	Birthday *time.Time
	Gender   *string
	Phone    *string
	PhotoURL string
	ThumbURL string
}

// SocialService maps Facebook, Google and Apple identities onto exactly one
// local account each.
type SocialService struct {
	store     UserStore
	tokens    *token.Service
	providers *identity.Registry
	reporter  observability.Reporter
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewSocialService(store UserStore, tokens *token.Service, providers *identity.Registry, reporter observability.Reporter, metrics *observability.Metrics) *SocialService {
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &SocialService{
		store:     store,
		tokens:    tokens,
		providers: providers,
		reporter:  reporter,
		metrics:   metrics,
		now:       time.Now,
	}
}

// SignIn verifies providerToken with the provider registered for kind and
// signs the resulting identity in.
func (s *SocialService) SignIn(ctx context.Context, c caller.Info, kind models.AuthType, providerToken string) (*AuthPayload, error) {
	provider, err := s.providers.Get(kind)
	if err != nil {
		s.count(kind, "rejected")
		return nil, apperr.Wrap(apperr.CodeSignInWithSocialFailed, err)
	}

	ext, err := provider.Verify(ctx, providerToken)
	if err != nil {
		s.count(kind, "rejected")
		return nil, apperr.Wrap(apperr.CodeSignInWithSocialFailed, err)
	}

	name := ext.Name
	if name == "" {
		name = anonymousName()
	}

	return s.SignInWithSocialAccount(ctx, c, SocialUserInput{
		SocialID: ext.SocialID,
		AuthType: ext.Kind,
		Name:     name,
		Email:    ext.Email,
		PhotoURL: ext.PhotoURL,
	})
}

// SignInWithSocialAccount finds or creates the account bound to
// (input.AuthType, input.SocialID), stamps its last sign-in and issues an
// access and refresh token. An email already owned by a different account is
// rejected rather than merged.
func (s *SocialService) SignInWithSocialAccount(ctx context.Context, c caller.Info, input SocialUserInput) (*AuthPayload, error) {
	if input.SocialID == "" || !input.AuthType.IsSocial() {
		return nil, apperr.Wrap(apperr.CodeInvalidInput, identity.ErrMissingSubject)
	}

	if input.Email != "" {
		taken, err := s.store.EmailOwnedByOther(ctx, input.Email, input.AuthType, input.SocialID)
		if err != nil {
			return nil, s.fail(input.AuthType, apperr.CodeSignInWithSocialFailed, err)
		}
		if taken {
			s.count(input.AuthType, "rejected")
			return nil, apperr.New(apperr.CodeEmailAlreadyExists)
		}
	}

	user, err := s.findOrCreate(ctx, c, input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.TouchLastSignedInBySocial(ctx, input.AuthType, input.SocialID, now); err != nil {
		report(ctx, s.reporter, c, "lastSignedIn update failed", user.ID.String(), err)
	} else {
		user.LastSignedIn = &now
	}

	accessToken, err := s.tokens.Issue(ctx, user.ID.String(), true)
	if err != nil {
		return nil, s.fail(input.AuthType, apperr.CodeSignInWithSocialFailed, err)
	}

	s.count(input.AuthType, "ok")
	return &AuthPayload{Token: accessToken, User: user}, nil
}

func (s *SocialService) findOrCreate(ctx context.Context, c caller.Info, input SocialUserInput) (*models.User, error) {
	user, err := s.store.FindBySocial(ctx, input.AuthType, input.SocialID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.fail(input.AuthType, apperr.CodeSignInWithSocialFailed, err)
	}

	socialID := input.SocialID
	verifiedAt := s.now()
	user = &models.User{
		Name:       input.Name,
		Email:      optional(input.Email),
		Birthday:   input.Birthday,
		Gender:     input.Gender,
		Phone:      input.Phone,
		PhotoURL:   optional(input.PhotoURL),
		ThumbURL:   optional(input.ThumbURL),
		VerifiedAt: &verifiedAt,
		Locale:     c.Locale.String(),
		Settings: &models.Settings{
			AuthType: input.AuthType,
			SocialID: &socialID,
		},
	}

	err = s.store.Create(ctx, user)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, s.fail(input.AuthType, apperr.CodeSignInWithSocialFailed, err)
	}

	// A concurrent sign-in may have created the same identity first.
	winner, findErr := s.store.FindBySocial(ctx, input.AuthType, input.SocialID)
	if findErr == nil {
		return winner, nil
	}
	s.count(input.AuthType, "rejected")
	return nil, apperr.Wrap(apperr.CodeEmailAlreadyExists, err)
}

func (s *SocialService) fail(kind models.AuthType, code apperr.Code, err error) error {
	s.count(kind, "error")
	return apperr.Wrap(code, fmt.Errorf("social sign-in: %w", err))
}

func (s *SocialService) count(kind models.AuthType, result string) {
	s.metrics.SignIns.WithLabelValues(string(kind), result).Inc()
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func report(ctx context.Context, r observability.Reporter, c caller.Info, msg, userID string, err error) {
	if r == nil {
		return
	}
	r.Report(ctx, observability.Event{
		Message:       msg,
		Err:           err,
		UserID:        userID,
		CorrelationID: c.CorrelationID,
	})
}
