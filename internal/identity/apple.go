package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

const appleIssuer = "https://appleid.apple.com"

type appleClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AppleProvider verifies Sign in with Apple identity tokens (RS256) against
// Apple's published JWKS.
type AppleProvider struct {
	clientID string
	jwksURL  string

	mu      sync.Mutex
	keyfunc jwt.Keyfunc
}

func NewApple(clientID, jwksURL string) *AppleProvider {
	return &AppleProvider{clientID: clientID, jwksURL: jwksURL}
}

// NewAppleWithKeyfunc skips the JWKS download; keys come from kf.
func NewAppleWithKeyfunc(clientID string, kf jwt.Keyfunc) *AppleProvider {
	return &AppleProvider{clientID: clientID, keyfunc: kf}
}

func (a *AppleProvider) Kind() models.AuthType {
	return models.AuthTypeApple
}

func (a *AppleProvider) Verify(_ context.Context, token string) (*ExternalIdentity, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	if a.clientID == "" {
		return nil, ErrProviderDisabled
	}

	kf, err := a.keys()
	if err != nil {
		return nil, err
	}

	claims := &appleClaims{}
	_, err = jwt.ParseWithClaims(token, claims, kf,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithAudience(a.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Apple identity token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &ExternalIdentity{
		Kind:     models.AuthTypeApple,
		SocialID: claims.Subject,
		Email:    claims.Email,
	}, nil
}

// keys loads the JWKS on first use; a failed download is retried on the next call.
func (a *AppleProvider) keys() (jwt.Keyfunc, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.keyfunc != nil {
		return a.keyfunc, nil
	}

	jwks, err := keyfunc.Get(a.jwksURL, keyfunc.Options{
		RefreshInterval:   24 * time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Error("apple jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Apple JWKS: %w", err)
	}
	a.keyfunc = jwks.Keyfunc
	return a.keyfunc, nil
}
