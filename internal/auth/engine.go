package auth

import (
	"context"

	"go.uber.org/zap"

	"edge-auth/internal/domain"
	"edge-auth/internal/service"
)

// Engine ejecuta la política: autentica, emite el token de sesión y
// materializa la sesión desde un token existente.
type Engine struct {
	policy *Policy
	tokens *service.SessionTokenService
	users  AccountStore
	logger *zap.Logger
}

func NewEngine(policy *Policy, tokens *service.SessionTokenService, users AccountStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		policy: policy,
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

func (e *Engine) Policy() *Policy {
	return e.policy
}

// Authenticate valida email y contraseña con el proveedor de credenciales.
func (e *Engine) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	provider, ok := e.policy.Provider("credentials")
	if !ok {
		return domain.Identity{}, ErrProviderNotFound
	}
	creds, ok := provider.(*CredentialsProvider)
	if !ok {
		return domain.Identity{}, ErrProviderNotFound
	}
	identity, err := creds.Authorize(ctx, email, password)
	if err != nil {
		e.debug("credentials sign-in rejected", zap.Error(err))
		return domain.Identity{}, err
	}
	e.debug("credentials sign-in accepted", zap.String("user_id", identity.ID))
	return identity, nil
}

// OAuthProvider devuelve el proveedor OAuth registrado con ese id.
func (e *Engine) OAuthProvider(id string) (OAuthProvider, error) {
	provider, ok := e.policy.Provider(id)
	if !ok {
		return nil, ErrProviderNotFound
	}
	oauthProvider, ok := provider.(OAuthProvider)
	if !ok {
		return nil, ErrProviderNotFound
	}
	return oauthProvider, nil
}

// AuthenticateOAuth completa el flujo authorization-code y resuelve el usuario.
func (e *Engine) AuthenticateOAuth(ctx context.Context, providerID, code, redirectURL string) (domain.Identity, error) {
	provider, err := e.OAuthProvider(providerID)
	if err != nil {
		return domain.Identity{}, err
	}
	profile, token, err := provider.Exchange(ctx, code, redirectURL)
	if err != nil {
		e.debug("oauth exchange failed", zap.String("provider", providerID), zap.Error(err))
		return domain.Identity{}, err
	}
	return ResolveOAuthUser(ctx, e.users, providerID, profile, token)
}

// IssueToken corre el callback JWT con la identidad recién autenticada y
// firma el resultado.
func (e *Engine) IssueToken(identity domain.Identity) (string, domain.Session, error) {
	token := e.policy.Callbacks.JWT(domain.Token{}, &identity)
	raw, expires, err := e.tokens.Issue(token)
	if err != nil {
		return "", domain.Session{}, err
	}
	token.Expires = expires
	session := e.policy.Callbacks.Session(domain.Session{Expires: expires}, token)
	return raw, session, nil
}

// MaterializeSession reconstruye la sesión a partir del token de la cookie.
func (e *Engine) MaterializeSession(raw string) (domain.Session, error) {
	token, err := e.tokens.Parse(raw)
	if err != nil {
		return domain.Session{}, err
	}
	token = e.policy.Callbacks.JWT(token, nil)
	return e.policy.Callbacks.Session(domain.Session{Expires: token.Expires}, token), nil
}

func (e *Engine) debug(msg string, fields ...zap.Field) {
	if e.policy.Debug {
		e.logger.Debug(msg, fields...)
	}
}
