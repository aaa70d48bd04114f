// Package oauth talks to the external identity provider: it builds consent
// URLs and trades authorization codes for the user's profile.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Profile is the subset of the provider's user info the service needs.
type Profile struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type GoogleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(c *config.Config) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURL:  c.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL asks for offline access and incremental scopes.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	// An unverified address proves nothing about who owns it.
	if profile.Email != "" && !profile.VerifiedEmail {
		return nil, fmt.Errorf("userinfo %s: %w", profile.Email, common.ErrFederationEmailUnverified)
	}
	return &profile, nil
}
