package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"luxora/internal/core/auth"
	"luxora/internal/domain"
)

type stubLoader map[string]*domain.Principal

func (s stubLoader) LoadPrincipal(_ context.Context, id, _ string) (*domain.Principal, error) {
	return s[id], nil
}

func newJWT() *auth.JWTer {
	return &auth.JWTer{Secret: []byte("test-secret"), Issuer: "luxora", TTL: time.Hour}
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthJWTStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	j := newJWT()
	customer := domain.CustomerPrincipal(&domain.User{ID: "u1", Role: "user", IsActive: true})
	banned := domain.CustomerPrincipal(&domain.User{ID: "u2", Role: "user", IsActive: false})
	seller := domain.SellerPrincipal(&domain.Seller{ID: "s1", IsActive: true})
	loader := stubLoader{"u1": &customer, "u2": &banned, "s1": &seller}

	r := gin.New()
	g := r.Group("", AuthJWT(j, loader))
	g.GET("/me", func(c *gin.Context) {
		p, ok := PrincipalOf(c)
		require.True(t, ok)
		c.String(http.StatusOK, p.ID()+":"+c.GetString(KeyRole))
	})
	g.GET("/seller-only", RequireRoles(auth.RoleSeller), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tok := func(id, role string) string {
		s, err := j.Issue(id, role)
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "garbage").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/me", tok("ghost", "user")).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/me", tok("u2", "user")).Code)

	w := get(r, "/me", tok("u1", "user"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1:user", w.Body.String())

	assert.Equal(t, http.StatusForbidden, get(r, "/seller-only", tok("u1", "user")).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/seller-only", tok("s1", "seller")).Code)

	expired := &auth.JWTer{Secret: j.Secret, Issuer: j.Issuer, TTL: -2 * time.Hour}
	old, err := expired.Issue("u1", "user")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", old).Code)
}

func TestRateLimitPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitPerIP(1, 2, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, get(r, "/", "").Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()), AccessLog(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := get(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(KeyRequestID))
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) { <-c.Request.Context().Done() })
	assert.Equal(t, http.StatusGatewayTimeout, get(r, "/slow", "").Code)
}
