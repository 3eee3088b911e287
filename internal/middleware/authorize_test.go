package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"learninghouse/console/internal/guard"
	"learninghouse/console/internal/models"
)

type fixedRole models.Role

func (r fixedRole) Role() models.Role { return models.Role(r) }

func newGuardedRouter(role models.Role, minimum models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := guard.New(fixedRole(role))
	r.Any("/screen", RequireRole(g, minimum), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestRequireRoleAllows(t *testing.T) {
	r := newGuardedRouter(models.RoleAdmin, models.RoleAdmin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/screen", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequireRoleRedirectsNavigation(t *testing.T) {
	r := newGuardedRouter(models.RoleUser, models.RoleAdmin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/screen", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != guard.DefaultLandingRoute {
		t.Fatalf("location = %q", loc)
	}
}

func TestRequireRoleJSONForAPICalls(t *testing.T) {
	r := newGuardedRouter(models.RoleNone, models.RoleTrainer)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/screen", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}

	r = newGuardedRouter(models.RoleUser, models.RoleTrainer)
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/screen", nil)
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
}
