package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"edge-auth/internal/domain"
	"edge-auth/internal/repository"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// OAuthProfile son los datos del usuario que devuelve el proveedor.
type OAuthProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// OAuthProvider delega el protocolo en golang.org/x/oauth2.
type OAuthProvider interface {
	Provider
	AuthCodeURL(state, redirectURL string) string
	Exchange(ctx context.Context, code, redirectURL string) (OAuthProfile, *oauth2.Token, error)
}

// GoogleProvider pide acceso offline y fuerza el consentimiento en cada login.
type GoogleProvider struct {
	config      oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

func NewGoogleProvider(clientID, clientSecret string, httpClient *http.Client) *GoogleProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GoogleProvider{
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
		httpClient:  httpClient,
	}
}

func (p *GoogleProvider) ID() string   { return "google" }
func (p *GoogleProvider) Type() string { return "oauth" }
func (p *GoogleProvider) Name() string { return "Google" }

func (p *GoogleProvider) withRedirect(redirectURL string) *oauth2.Config {
	cfg := p.config
	cfg.RedirectURL = redirectURL
	return &cfg
}

func (p *GoogleProvider) AuthCodeURL(state, redirectURL string) string {
	return p.withRedirect(redirectURL).AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURL string) (OAuthProfile, *oauth2.Token, error) {
	cfg := p.withRedirect(redirectURL)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return OAuthProfile{}, nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return OAuthProfile{}, nil, err
	}
	resp, err := cfg.Client(ctx, token).Do(req)
	if err != nil {
		return OAuthProfile{}, nil, fmt.Errorf("%w: userinfo: %v", ErrOAuthExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return OAuthProfile{}, nil, fmt.Errorf("%w: userinfo status %d", ErrOAuthExchange, resp.StatusCode)
	}

	var profile OAuthProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return OAuthProfile{}, nil, fmt.Errorf("%w: decode userinfo: %v", ErrOAuthExchange, err)
	}
	if profile.Subject == "" {
		return OAuthProfile{}, nil, fmt.Errorf("%w: missing subject", ErrOAuthExchange)
	}
	return profile, token, nil
}

// ResolveOAuthUser busca o crea el usuario vinculado a la cuenta OAuth. Un
// email ya registrado sin la cuenta vinculada no se enlaza automáticamente.
func ResolveOAuthUser(ctx context.Context, users AccountStore, provider string, profile OAuthProfile, token *oauth2.Token) (domain.Identity, error) {
	if users == nil {
		return domain.Identity{}, errors.New("account store not configured")
	}

	user, err := users.GetByAccount(ctx, provider, profile.Subject)
	if err == nil {
		return user.Identity(), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Identity{}, err
	}

	email := normalizeEmail(profile.Email)
	if email != "" {
		_, err := users.GetByEmail(ctx, email)
		if err == nil {
			return domain.Identity{}, ErrAccountNotLinked
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, err
		}
	}

	now := time.Now().UTC()
	user = domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      profile.Name,
		Image:     profile.Picture,
		CreatedAt: now,
	}
	if profile.EmailVerified {
		user.EmailVerifiedAt = &now
	}
	account := domain.Account{
		UserID:            user.ID,
		Provider:          provider,
		ProviderAccountID: profile.Subject,
		CreatedAt:         now,
	}
	if token != nil {
		account.RefreshToken = token.RefreshToken
	}
	if err := users.CreateWithAccount(ctx, user, account); err != nil {
		return domain.Identity{}, err
	}
	return user.Identity(), nil
}
