package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

// gothProvider fetches the profile behind an already-obtained OAuth access
// token through a goth provider.
type gothProvider struct {
	kind       models.AuthType
	provider   goth.Provider
	newSession func(accessToken string) goth.Session
}

// NewGoogle verifies Google access tokens against the userinfo endpoint.
func NewGoogle(clientID, clientSecret string, client *http.Client) Provider {
	p := google.New(clientID, clientSecret, "")
	p.HTTPClient = client
	return &gothProvider{
		kind:     models.AuthTypeGoogle,
		provider: p,
		newSession: func(accessToken string) goth.Session {
			return &google.Session{AccessToken: accessToken}
		},
	}
}

// NewFacebook verifies Facebook access tokens against the Graph API /me endpoint.
func NewFacebook(appID, appSecret string, client *http.Client) Provider {
	p := facebook.New(appID, appSecret, "")
	p.HTTPClient = client
	return &gothProvider{
		kind:     models.AuthTypeFacebook,
		provider: p,
		newSession: func(accessToken string) goth.Session {
			return &facebook.Session{AccessToken: accessToken}
		},
	}
}

func (g *gothProvider) Kind() models.AuthType {
	return g.kind
}

func (g *gothProvider) Verify(_ context.Context, token string) (*ExternalIdentity, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	user, err := g.provider.FetchUser(g.newSession(token))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s profile: %w", g.kind, err)
	}
	if user.UserID == "" {
		return nil, ErrMissingSubject
	}

	return &ExternalIdentity{
		Kind:     g.kind,
		SocialID: user.UserID,
		Name:     user.Name,
		Email:    user.Email,
		PhotoURL: user.AvatarURL,
	}, nil
}
