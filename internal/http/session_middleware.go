package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"edge-auth/internal/auth"
	"edge-auth/internal/domain"
)

const sessionKey = "auth_session"

// SessionMiddleware materializa la sesión desde la cookie o un header Bearer
// y la deja en el contexto. No corta la request si no hay sesión.
func SessionMiddleware(engine *auth.Engine, secureCookies bool) gin.HandlerFunc {
	cookieName := sessionCookieName(secureCookies)
	return func(c *gin.Context) {
		raw := sessionTokenFromRequest(c, cookieName)
		if raw != "" && engine != nil {
			if session, err := engine.MaterializeSession(raw); err == nil {
				c.Set(sessionKey, session)
			}
		}
		c.Next()
	}
}

// RequireSession responde 401 cuando SessionMiddleware no encontró sesión.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetSession obtiene la sesión desde el contexto.
func GetSession(c *gin.Context) (domain.Session, bool) {
	val, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	session, ok := val.(domain.Session)
	return session, ok
}

func sessionTokenFromRequest(c *gin.Context, cookieName string) string {
	if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
		return raw
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > len("Bearer ") && strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}
