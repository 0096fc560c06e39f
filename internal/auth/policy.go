package auth

import (
	"context"
	"net/http"
	"slices"
	"time"

	"edge-auth/internal/config"
	"edge-auth/internal/domain"
	"edge-auth/internal/service"
)

// Strategy es la forma de persistir la sesión.
type Strategy string

const StrategyJWT Strategy = "jwt"

// Provider es un método de inicio de sesión.
type Provider interface {
	ID() string
	Type() string
	Name() string
}

// UserFinder busca identidades por email único.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// AccountStore agrega lo necesario para enlazar cuentas OAuth.
type AccountStore interface {
	UserFinder
	GetByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error)
	CreateWithAccount(ctx context.Context, user domain.User, account domain.Account) error
}

// Policy es la configuración declarativa de autenticación.
type Policy struct {
	Strategy  Strategy
	MaxAge    time.Duration
	Providers []Provider
	Callbacks Callbacks
	Debug     bool
	TrustHost bool
	BaseURL   string

	// TrustedProxies son los proxies cuyo X-Forwarded-For se acepta.
	TrustedProxies []string
}

type Deps struct {
	Users      AccountStore
	Verify     PasswordVerifier
	HTTPClient *http.Client
}

// NewPolicy arma la política a partir de la configuración validada. El
// proveedor OAuth solo se registra si tiene id y secreto.
func NewPolicy(cfg config.Config, deps Deps) *Policy {
	providers := make([]Provider, 0, 2)
	if cfg.GoogleConfigured() {
		providers = append(providers, NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, deps.HTTPClient))
	}
	providers = append(providers, NewCredentialsProvider(deps.Users, deps.Verify))

	return &Policy{
		Strategy:  StrategyJWT,
		MaxAge:    service.SessionMaxAge,
		Providers: providers,
		Callbacks: DefaultCallbacks{},
		Debug:     cfg.IsDevelopment(),
		TrustHost: cfg.TrustHost.Bool(),
		BaseURL:   cfg.AuthURL,

		TrustedProxies: slices.Clone(cfg.TrustedProxies),
	}
}

func (p *Policy) Provider(id string) (Provider, bool) {
	for _, provider := range p.Providers {
		if provider.ID() == id {
			return provider, true
		}
	}
	return nil, false
}
