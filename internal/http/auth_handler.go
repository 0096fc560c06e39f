package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"edge-auth/internal/analytics"
	"edge-auth/internal/auth"
	"edge-auth/internal/domain"
)

const authBasePath = "/api/auth"

// AuthHandler expone el motor de autenticación por HTTP.
type AuthHandler struct {
	logger        *zap.Logger
	engine        *auth.Engine
	recorder      analytics.Recorder
	secureCookies bool
	cacheTTL      time.Duration
}

func NewAuthHandler(logger *zap.Logger, engine *auth.Engine, recorder analytics.Recorder, secureCookies bool, cacheTTL time.Duration) *AuthHandler {
	if recorder == nil {
		recorder = analytics.NopRecorder{}
	}
	return &AuthHandler{
		logger:        logger,
		engine:        engine,
		recorder:      recorder,
		secureCookies: secureCookies,
		cacheTTL:      cacheTTL,
	}
}

type providerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SignInURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

// Providers maneja GET /api/auth/providers.
func (h *AuthHandler) Providers(c *gin.Context) {
	providers := h.engine.Policy().Providers
	views := make(map[string]providerView, len(providers))
	for _, p := range providers {
		views[p.ID()] = providerView{
			ID:          p.ID(),
			Name:        p.Name(),
			Type:        p.Type(),
			SignInURL:   h.baseURL(c) + authBasePath + "/signin/" + p.ID(),
			CallbackURL: h.callbackURL(c, p.ID()),
		}
	}
	if h.cacheTTL > 0 {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.cacheTTL.Seconds())))
	}
	c.JSON(http.StatusOK, views)
}

// CredentialsCallback maneja POST /api/auth/callback/credentials.
func (h *AuthHandler) CredentialsCallback(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid credentials request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	identity, err := h.engine.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.record(c, analytics.KindSignInFailure, "credentials", "")
			c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
			return
		}
		h.logger.Error("credentials sign-in failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}

	session, ok := h.startSession(c, identity)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign in"})
		return
	}
	h.record(c, analytics.KindSignInSuccess, "credentials", identity.ID)
	c.JSON(http.StatusOK, session)
}

// OAuthSignIn maneja GET /api/auth/signin/:provider.
func (h *AuthHandler) OAuthSignIn(c *gin.Context) {
	providerID := c.Param("provider")
	provider, err := h.engine.OAuthProvider(providerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
		return
	}

	state := uuid.NewString()
	setCookie(c, stateCookieName, state, stateCookieTTL, h.secureCookies)
	c.Redirect(http.StatusFound, provider.AuthCodeURL(state, h.callbackURL(c, providerID)))
}

// OAuthCallback maneja GET /api/auth/callback/:provider.
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	providerID := c.Param("provider")
	if _, err := h.engine.OAuthProvider(providerID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
		return
	}

	state, err := c.Cookie(stateCookieName)
	clearCookie(c, stateCookieName, h.secureCookies)
	if err != nil || state == "" || c.Query("state") != state {
		h.redirectError(c, "OAuthCallback")
		return
	}
	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "OAuthCallback")
		return
	}

	identity, err := h.engine.AuthenticateOAuth(c.Request.Context(), providerID, code, h.callbackURL(c, providerID))
	if err != nil {
		h.record(c, analytics.KindSignInFailure, providerID, "")
		if errors.Is(err, auth.ErrAccountNotLinked) {
			h.redirectError(c, "OAuthAccountNotLinked")
			return
		}
		h.logger.Warn("oauth sign-in failed", zap.String("provider", providerID), zap.Error(err))
		h.redirectError(c, "OAuthCallback")
		return
	}

	if _, ok := h.startSession(c, identity); !ok {
		h.redirectError(c, "Callback")
		return
	}
	h.record(c, analytics.KindSignInSuccess, providerID, identity.ID)
	c.Redirect(http.StatusFound, "/")
}

// Session maneja GET /api/auth/session. La sesión ya la materializó
// SessionMiddleware; una cookie que no produjo sesión se borra.
func (h *AuthHandler) Session(c *gin.Context) {
	c.Header("Cache-Control", "private, no-cache, no-store")
	session, ok := GetSession(c)
	if !ok {
		name := sessionCookieName(h.secureCookies)
		if raw, err := c.Cookie(name); err == nil && raw != "" {
			clearCookie(c, name, h.secureCookies)
		}
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, session)
}

// SignOut maneja POST /api/auth/signout.
func (h *AuthHandler) SignOut(c *gin.Context) {
	userID := ""
	if session, ok := GetSession(c); ok {
		userID = session.User.ID
	}
	clearCookie(c, sessionCookieName(h.secureCookies), h.secureCookies)
	h.record(c, analytics.KindSignOut, "", userID)
	c.JSON(http.StatusOK, gin.H{"url": h.baseURL(c) + "/"})
}

func (h *AuthHandler) startSession(c *gin.Context, identity domain.Identity) (domain.Session, bool) {
	raw, session, err := h.engine.IssueToken(identity)
	if err != nil {
		h.logger.Error("session token issue failed", zap.Error(err))
		return domain.Session{}, false
	}
	setCookie(c, sessionCookieName(h.secureCookies), raw, h.engine.Policy().MaxAge, h.secureCookies)
	return session, true
}

func (h *AuthHandler) record(c *gin.Context, kind, provider, userID string) {
	h.recorder.Record(c.Request.Context(), analytics.Event{
		Kind:     kind,
		Provider: provider,
		UserID:   userID,
		ClientIP: c.ClientIP(),
	})
}

func (h *AuthHandler) redirectError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, "/signin?error="+url.QueryEscape(code))
}

func (h *AuthHandler) callbackURL(c *gin.Context, providerID string) string {
	return h.baseURL(c) + authBasePath + "/callback/" + providerID
}

// baseURL usa NEXTAUTH_URL salvo que se confíe en los headers del proxy.
func (h *AuthHandler) baseURL(c *gin.Context) string {
	policy := h.engine.Policy()
	if policy.TrustHost {
		proto := c.GetHeader("X-Forwarded-Proto")
		host := c.GetHeader("X-Forwarded-Host")
		if host != "" {
			if proto == "" {
				proto = "https"
			}
			return proto + "://" + host
		}
	}
	if policy.BaseURL != "" {
		return strings.TrimRight(policy.BaseURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
