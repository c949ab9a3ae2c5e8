package middlewares

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hadirku.id/hadirku/security"
)

const testSecret = "c2VjcmV0LXNpZ25pbmcta2V5LWZvci10ZXN0cw==" // base64

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	secret, err := base64.StdEncoding.DecodeString(testSecret)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api")
	api.Use(Authentication(secret))
	api.GET("/whoami", func(c *gin.Context) {
		claims, _ := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.Identity.ID})
	})

	admin := api.Group("")
	admin.Use(RequireAdmin())
	admin.GET("/admin-only", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func mintToken(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	token, err := security.CreateIdentityToken(&security.Identity{
		ID:   7,
		Name: "Test User",
		Role: role,
	}, testSecret, ttl)
	require.NoError(t, err)
	return token
}

func TestAuthenticationBearerHeader(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, security.RoleEmployee, time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
}

func TestAuthenticationCookie(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "hadirku.ApplicationCookie", Value: mintToken(t, security.RoleEmployee, time.Hour)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticationRejects(t *testing.T) {
	r := testRouter(t)

	cases := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"malformed header", func(req *http.Request) {
			req.Header.Set("Authorization", "Token abc")
		}},
		{"garbage token", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer not.a.jwt")
		}},
		{"expired token", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+mintToken(t, security.RoleEmployee, -time.Minute))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, security.RoleEmployee, time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, security.RoleAdmin, time.Hour))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
