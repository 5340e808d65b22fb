// Package auth implements the external identity provider login flows.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"interhub/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// Provider names accepted on the /auth/:provider routes.
const (
	ProviderGoogle   = "google"
	ProviderOutlook  = "outlook"
	ProviderFacebook = "facebook"
)

// Identity is the provider-agnostic profile returned by a completed
// authorization-code exchange.
type Identity struct {
	Provider string
	ID       string
	Email    string
	Name     string
}

// OAuthService holds one oauth2.Config per configured provider.
type OAuthService struct {
	providers map[string]*oauth2.Config
}

// NewOAuthService wires the configured identity providers. Providers without
// credentials are simply absent; Config then returns false for them.
func NewOAuthService(cfg *config.Config) *OAuthService {
	s := &OAuthService{providers: make(map[string]*oauth2.Config)}

	if cfg.GoogleClientID != "" {
		s.providers[ProviderGoogle] = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/auth/google/callback",
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}
	}
	if cfg.OutlookClientID != "" {
		s.providers[ProviderOutlook] = &oauth2.Config{
			ClientID:     cfg.OutlookClientID,
			ClientSecret: cfg.OutlookClientSecret,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/auth/outlook/callback",
			Scopes:       []string{"User.Read"},
			Endpoint:     microsoft.AzureADEndpoint("common"),
		}
	}
	if cfg.FacebookClientID != "" {
		s.providers[ProviderFacebook] = &oauth2.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/auth/facebook/callback",
			Scopes:       []string{"public_profile", "email"},
			Endpoint:     facebook.Endpoint,
		}
	}

	return s
}

// Config returns the oauth2 config for a provider name.
func (s *OAuthService) Config(provider string) (*oauth2.Config, bool) {
	cfg, ok := s.providers[provider]
	return cfg, ok
}

// AuthURL returns the provider authorization URL carrying the CSRF state.
func (s *OAuthService) AuthURL(provider, state string) (string, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("auth: unknown or unconfigured provider %q", provider)
	}
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades the authorization code for the provider's user profile.
// The code-for-token exchange happens server-to-server; the access token
// never reaches the browser.
func (s *OAuthService) Exchange(ctx context.Context, provider, code string) (*Identity, error) {
	cfg, ok := s.providers[provider]
	if !ok {
		return nil, fmt.Errorf("auth: unknown or unconfigured provider %q", provider)
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	client := cfg.Client(ctx, token)
	switch provider {
	case ProviderGoogle:
		return fetchGoogleIdentity(client)
	case ProviderOutlook:
		return fetchOutlookIdentity(client)
	case ProviderFacebook:
		return fetchFacebookIdentity(client)
	}
	return nil, fmt.Errorf("auth: no identity fetcher for provider %q", provider)
}

func fetchGoogleIdentity(client *http.Client) (*Identity, error) {
	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := fetchJSON(client, "https://www.googleapis.com/oauth2/v2/userinfo", &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("auth: google returned an empty user ID")
	}
	return &Identity{Provider: ProviderGoogle, ID: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func fetchOutlookIdentity(client *http.Client) (*Identity, error) {
	var payload struct {
		ID                string `json:"id"`
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := fetchJSON(client, "https://graph.microsoft.com/v1.0/me", &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("auth: microsoft graph returned an empty user ID")
	}
	email := payload.Mail
	if email == "" {
		email = payload.UserPrincipalName
	}
	return &Identity{Provider: ProviderOutlook, ID: payload.ID, Email: email, Name: payload.DisplayName}, nil
}

func fetchFacebookIdentity(client *http.Client) (*Identity, error) {
	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := fetchJSON(client, "https://graph.facebook.com/me?fields=id,name,email", &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("auth: facebook returned an empty user ID")
	}
	return &Identity{Provider: ProviderFacebook, ID: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func fetchJSON(client *http.Client, url string, dest any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("auth: calling provider user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: provider user API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("auth: decoding provider user response: %w", err)
	}
	return nil
}
