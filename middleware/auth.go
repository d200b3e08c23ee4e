package middleware

import (
	"net/http"
	"strings"

	"jobboard/apperr"
	"jobboard/models"
	"jobboard/session"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Auth validates the bearer token (or ?token=) and stores the session in the
// gin context.
func Auth(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// CORS preflight
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			token := c.Query("token")
			if token == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Authentication required",
					"code":  apperr.KindAuth,
				})
				return
			}
			authHeader = "Bearer " + token
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header",
				"code":  apperr.KindAuth,
			})
			return
		}

		sess, err := sessions.Parse(c.Request.Context(), parts[1])
		if err != nil {
			status := http.StatusUnauthorized
			if !apperr.Is(err, apperr.KindAuth) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{
				"error": apperr.MessageOf(err),
				"code":  apperr.KindOf(err),
			})
			return
		}

		c.Set(sessionKey, sess)
		c.Set("userId", sess.AccountID)
		c.Next()
	}
}

// Session returns the session stored by Auth, or nil.
func Session(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}

// RequireRole rejects sessions holding none of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Session(c).Is(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
				"code":  apperr.KindForbidden,
			})
			return
		}
		c.Next()
	}
}
