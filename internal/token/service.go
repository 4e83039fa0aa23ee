// Package token issues and verifies HS256 access/refresh tokens and implements
// verification that transparently replaces an expired access token while the
// account still holds a valid refresh token.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/background"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/observability"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 365 * 24 * time.Hour
)

var ErrMissingUserID = errors.New("token carries no userId claim")

// RefreshStore persists the single live refresh token of a user.
type RefreshStore interface {
	UpsertRefreshToken(ctx context.Context, userID, token string) error
	FindRefreshToken(ctx context.Context, userID string) (string, error)
}

type accessClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Verification is the result of a storage-free signature and expiry check.
type Verification struct {
	Verified bool
	UserID   string
}

// Result is the outcome of VerifyWithRefresh. AccessToken is the token the
// caller should use from now on; it differs from the input only when a new one
// was minted.
type Result struct {
	OK          bool
	AccessToken string
	UserID      string
}

type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	store    RefreshStore
	runner   *background.Runner
	reporter observability.Reporter
	metrics  *observability.Metrics
}

func NewService(opts Options, store RefreshStore, runner *background.Runner, reporter observability.Reporter, metrics *observability.Metrics) *Service {
	if opts.AccessTTL == 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &Service{
		secret:     []byte(opts.Secret),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
		store:      store,
		runner:     runner,
		reporter:   reporter,
		metrics:    metrics,
	}
}

// Issue mints an access token for userID. With withRefresh it also mints a
// refresh token and replaces whatever the user had stored before.
func (s *Service) Issue(ctx context.Context, userID string, withRefresh bool) (string, error) {
	accessToken, err := s.signAccess(userID)
	if err != nil {
		return "", err
	}

	if withRefresh {
		if _, err := s.rotate(ctx, userID); err != nil {
			return "", err
		}
	}

	return accessToken, nil
}

// Verify checks signature and expiry only.
func (s *Service) Verify(accessToken string) Verification {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, s.keyfunc, s.parserOptions()...)
	if err != nil || claims.UserID == "" {
		return Verification{}
	}
	return Verification{Verified: true, UserID: claims.UserID}
}

// RefreshToken returns the stored refresh token for userID, or "" when none.
func (s *Service) RefreshToken(ctx context.Context, userID string) (string, error) {
	return s.store.FindRefreshToken(ctx, userID)
}

// RotateRefresh mints and persists a new refresh token. A persistence failure
// is reported and yields ("", false); the caller keeps its current session.
func (s *Service) RotateRefresh(ctx context.Context, userID string) (string, bool) {
	refreshToken, err := s.rotate(ctx, userID)
	if err != nil {
		s.report(ctx, "refresh token rotation failed", userID, err)
		return "", false
	}
	return refreshToken, true
}

func (s *Service) rotate(ctx context.Context, userID string) (string, error) {
	refreshToken, err := s.signRefresh()
	if err != nil {
		return "", err
	}
	if err := s.store.UpsertRefreshToken(ctx, userID, refreshToken); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return refreshToken, nil
}

// VerifyWithRefresh verifies accessToken and, when it is no longer valid but the
// user still holds a valid refresh token, returns a newly minted access token.
// It never returns an error: anything unexpected is reported and yields OK=false.
func (s *Service) VerifyWithRefresh(ctx context.Context, accessToken string) Result {
	userID, err := s.claimedUserID(accessToken)
	if err != nil {
		s.report(ctx, "verify with refresh: undecodable access token", "", err)
		return s.outcome("malformed", Result{})
	}

	verification := s.Verify(accessToken)

	stored, err := s.store.FindRefreshToken(ctx, userID)
	if err != nil {
		s.report(ctx, "verify with refresh: refresh token lookup failed", userID, err)
		return s.outcome("error", Result{})
	}
	hasRefresh := stored != "" && s.validRefresh(stored)

	switch {
	case verification.Verified && hasRefresh:
		return s.outcome("valid", Result{OK: true, AccessToken: accessToken, UserID: userID})

	case verification.Verified:
		ev := observability.Event{Message: "refresh token rotation failed", UserID: userID}
		s.runner.Spawn(ctx, "refresh_rotation", ev, func(ctx context.Context) error {
			_, err := s.rotate(ctx, userID)
			return err
		})
		return s.outcome("repaired", Result{OK: true, AccessToken: accessToken, UserID: userID})

	case !hasRefresh:
		return s.outcome("expired", Result{})

	default:
		renewed, err := s.signAccess(userID)
		if err != nil {
			s.report(ctx, "verify with refresh: access token signing failed", userID, err)
			return s.outcome("error", Result{})
		}
		return s.outcome("refreshed", Result{OK: true, AccessToken: renewed, UserID: userID})
	}
}

// claimedUserID decodes claims without checking signature or expiry.
func (s *Service) claimedUserID(accessToken string) (string, error) {
	claims := &accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return "", fmt.Errorf("failed to decode access token: %w", err)
	}
	if claims.UserID == "" {
		return "", ErrMissingUserID
	}
	return claims.UserID, nil
}

func (s *Service) validRefresh(refreshToken string) bool {
	_, err := jwt.ParseWithClaims(refreshToken, &jwt.RegisteredClaims{}, s.keyfunc, s.parserOptions()...)
	return err == nil
}

func (s *Service) signAccess(userID string) (string, error) {
	now := s.now()
	claims := accessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *Service) signRefresh() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

func (s *Service) keyfunc(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}

func (s *Service) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
}

func (s *Service) outcome(label string, r Result) Result {
	s.metrics.TokenVerifications.WithLabelValues(label).Inc()
	return r
}

func (s *Service) report(ctx context.Context, msg, userID string, err error) {
	if s.reporter == nil {
		return
	}
	s.reporter.Report(ctx, observability.Event{Message: msg, Err: err, UserID: userID})
}
