package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieBase = "authjs.session-token"
	stateCookieName   = "authjs.state"
	stateCookieTTL    = 10 * time.Minute
)

// sessionCookieName agrega el prefijo __Secure- cuando la cookie viaja solo
// por HTTPS.
func sessionCookieName(secure bool) string {
	if secure {
		return "__Secure-" + sessionCookieBase
	}
	return sessionCookieBase
}

func setCookie(c *gin.Context, name, value string, maxAge time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge.Seconds()), "/", "", secure, true)
}

func clearCookie(c *gin.Context, name string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", secure, true)
}
