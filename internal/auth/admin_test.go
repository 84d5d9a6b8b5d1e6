package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/cache"
)

func newRouter(t *testing.T, hash string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c := cache.New(0)
	t.Cleanup(c.Close)

	admin := NewAdmin("admin", hash, NewLimiter(c), zerolog.Nop())
	r := gin.New()
	r.GET("/admin", admin.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func hashOf(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func call(r *gin.Engine, user, pass string) int {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestOpenWhenNoHash(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, call(newRouter(t, ""), "", ""))
}

func TestBasicAuth(t *testing.T) {
	r := newRouter(t, hashOf(t, "s3cret"))

	assert.Equal(t, http.StatusUnauthorized, call(r, "", ""))
	assert.Equal(t, http.StatusUnauthorized, call(r, "admin", "wrong"))
	assert.Equal(t, http.StatusUnauthorized, call(r, "root", "s3cret"))
	assert.Equal(t, http.StatusNoContent, call(r, "admin", "s3cret"))
}

func TestBlockAfterRepeatedFailures(t *testing.T) {
	r := newRouter(t, hashOf(t, "s3cret"))

	for i := 0; i < MaxAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, call(r, "admin", "wrong"))
	}
	assert.Equal(t, http.StatusTooManyRequests, call(r, "admin", "s3cret"))
}

func TestSuccessResetsFailures(t *testing.T) {
	r := newRouter(t, hashOf(t, "s3cret"))

	for i := 0; i < MaxAttempts-1; i++ {
		call(r, "admin", "wrong")
	}
	assert.Equal(t, http.StatusNoContent, call(r, "admin", "s3cret"))
	for i := 0; i < MaxAttempts-1; i++ {
		assert.Equal(t, http.StatusUnauthorized, call(r, "admin", "wrong"))
	}
	assert.Equal(t, http.StatusNoContent, call(r, "admin", "s3cret"))
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("s3cret")))
}
