package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coin-tracker/internal/service"
	"coin-tracker/internal/session"
)

const sessionContextKey = "session"

// requireSession resolves the caller's session or redirects to the login
// page. Tenant-scoped routes never error on a missing session.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.cookieName)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		sess, err := h.sessions.Load(c.Request.Context(), token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// requireSuperadmin gates the export surface to the one configured identity.
func (h *Handler) requireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		if sess == nil || h.superadmin == "" || service.NormalizeEmail(sess.Email) != h.superadmin {
			c.HTML(http.StatusForbidden, "error.html", gin.H{"Error": "Forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := value.(*session.Session)
	return sess
}
