package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learninghouse/console/internal/guard"
	"learninghouse/console/internal/models"
)

// RequireRole gates a console route. Browser navigations are redirected,
// API calls get a JSON error naming the redirect target.
func RequireRole(g *guard.Guard, minimum models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := g.Check(minimum)
		if decision.Allowed {
			c.Next()
			return
		}

		if c.Request.Method == http.MethodGet && !wantsJSON(c) {
			c.Redirect(http.StatusFound, decision.Redirect)
			c.Abort()
			return
		}

		status, key := http.StatusForbidden, "insufficient_role"
		if decision.Redirect == g.LoginRoute() {
			status, key = http.StatusUnauthorized, "unauthorized"
		}
		c.AbortWithStatusJSON(status, gin.H{
			"error":    key,
			"redirect": decision.Redirect,
		})
	}
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
