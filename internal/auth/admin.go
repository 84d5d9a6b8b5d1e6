// Package auth guards the admin routes with HTTP Basic credentials checked against a bcrypt hash.
package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/cache"
)

const (
	MaxAttempts   = 5
	AttemptWindow = 15 * time.Minute
	BlockDuration = 30 * time.Minute
)

// Limiter blocks a client after MaxAttempts failures inside AttemptWindow.
type Limiter struct {
	entries *cache.Cache
}

func NewLimiter(c *cache.Cache) *Limiter {
	return &Limiter{entries: c}
}

func (l *Limiter) Blocked(client string) bool {
	_, blocked := l.entries.Get("block:" + client)
	return blocked
}

// Fail records a failed attempt and reports whether the client is now blocked.
func (l *Limiter) Fail(client string) bool {
	if l.entries.Incr("fail:"+client, AttemptWindow) < MaxAttempts {
		return false
	}
	l.entries.Delete("fail:" + client)
	l.entries.Set("block:"+client, 1, BlockDuration)
	return true
}

func (l *Limiter) Reset(client string) {
	l.entries.Delete("fail:" + client)
}

type Admin struct {
	username string
	hash     []byte
	limiter  *Limiter
	log      zerolog.Logger
}

// NewAdmin returns a guard. An empty hash leaves the admin routes open.
func NewAdmin(username, passwordHash string, limiter *Limiter, log zerolog.Logger) *Admin {
	return &Admin{username: username, hash: []byte(passwordHash), limiter: limiter, log: log}
}

func (a *Admin) Enabled() bool { return a != nil && len(a.hash) > 0 }

func (a *Admin) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.Next()
			return
		}

		client := c.ClientIP()
		if a.limiter.Blocked(client) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many failed login attempts, try again later",
			})
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok || !a.check(user, pass) {
			if ok {
				blocked := a.limiter.Fail(client)
				a.log.Warn().Str("client", client).Bool("blocked", blocked).Msg("admin login failed")
			}
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
			})
			return
		}

		a.limiter.Reset(client)
		c.Set("admin", user)
		c.Next()
	}
}

func (a *Admin) check(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.hash, []byte(pass)) == nil
	return userOK && passOK
}

// HashPassword produces a value for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
