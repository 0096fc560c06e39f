package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"edge-auth/internal/auth"
	"edge-auth/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de auth.
func NewRouter(
	logger *zap.Logger,
	engine *auth.Engine,
	authH *AuthHandler,
	limiter service.RateLimiter,
	secureCookies bool,
) *gin.Engine {
	r := gin.New()
	// TrustHost solo afecta la URL base; la IP del cliente depende de esta lista.
	if err := r.SetTrustedProxies(engine.Policy().TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), SessionMiddleware(engine, secureCookies))

	api := r.Group(authBasePath)
	api.GET("/providers", authH.Providers)
	api.GET("/session", authH.Session)
	api.GET("/signin/:provider", RateLimitMiddleware(limiter, "signin"), authH.OAuthSignIn)
	api.GET("/callback/:provider", authH.OAuthCallback)
	api.POST("/callback/credentials", RateLimitMiddleware(limiter, "credentials"), authH.CredentialsCallback)
	api.POST("/signout", authH.SignOut)

	r.GET("/api/me", RequireSession(), func(c *gin.Context) {
		session, _ := GetSession(c)
		c.JSON(http.StatusOK, session.User)
	})

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
