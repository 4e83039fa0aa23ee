// Package identity verifies third-party access tokens and normalizes the
// result into an ExternalIdentity. It makes no decision about local accounts.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

var (
	ErrEmptyToken       = errors.New("provider token is required")
	ErrUnknownProvider  = errors.New("unknown identity provider")
	ErrMissingSubject   = errors.New("provider returned no subject")
	ErrProviderDisabled = errors.New("identity provider is not configured")
)

// ExternalIdentity is what a provider vouches for.
type ExternalIdentity struct {
	Kind     models.AuthType
	SocialID string
	Name     string
	Email    string
	PhotoURL string
}

type Provider interface {
	Kind() models.AuthType
	Verify(ctx context.Context, token string) (*ExternalIdentity, error)
}

// Registry selects a Provider by kind.
type Registry struct {
	providers map[models.AuthType]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.AuthType]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Kind()] = p
	}
	return r
}

func (r *Registry) Get(kind models.AuthType) (Provider, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
	return p, nil
}
