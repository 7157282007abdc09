package middleware

import (
	"net/http"

	"quizlytics/api/utils"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the client-held visitor correlation cookie.
const SessionCookieName = "session_id"

// SessionKey is the gin context key the resolved token is stored under.
const SessionKey = "session_id"

// EnsureSession passes an existing session cookie through unchanged and
// mints a new token otherwise. The token correlates requests from one
// visitor; it authenticates nothing, so it is readable by the client.
func EnsureSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			token = utils.NewSessionToken()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(
				SessionCookieName,
				token,
				utils.SessionCookieMaxAge,
				"/",
				"",
				false,
				false,
			)
		}
		c.Set(SessionKey, token)
		c.Next()
	}
}

// SessionID returns the token resolved by EnsureSession for this request.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
