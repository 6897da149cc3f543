package middleware

import (
	"net/http" // HTTP status codes
	"net/url"  // Login redirect target
	"time"     // Cookie lifetime

	"finance_portfolio/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// SessionCookie holds the signed session token
const SessionCookie = "session"

// Context keys set for authenticated requests
const (
	UserIDKey   = "userID"
	UsernameKey = "username"
)

// LoginPath is where anonymous visitors are sent
const LoginPath = "/login/"

// SetSession stores a session token in an HttpOnly cookie
func SetSession(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearSession expires the session cookie
func ClearSession(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

// readSession validates the session cookie and stores the user in the context
func readSession(c *gin.Context, secret string) bool {
	tokenStr, err := c.Cookie(SessionCookie) // Get the session cookie
	if err != nil || tokenStr == "" {
		return false
	}
	claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
	if err != nil {
		return false
	}
	c.Set(UserIDKey, claims.UserID)     // Store userID in context
	c.Set(UsernameKey, claims.Username) // Store username for the navigation bar
	return true
}

// LoadSession reads the session if there is one and never blocks the request
func LoadSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		readSession(c, secret)
		c.Next()
	}
}

// RequireSession sends anonymous visitors to the login page, remembering where they were going
func RequireSession(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(UserIDKey); ok || readSession(c, secret) {
			c.Next() // Proceed to the next handler
			return
		}
		next := url.Values{"next": {c.Request.URL.RequestURI()}}
		c.Redirect(http.StatusFound, LoginPath+"?"+next.Encode())
		c.Abort()
	}
}

// RequireSessionJSON rejects anonymous API callers with 401
func RequireSessionJSON(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(UserIDKey); ok || readSession(c, secret) {
			c.Next() // Proceed to the next handler
			return
		}
		// If not, abort with unauthorized status
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid session"})
	}
}

// CurrentUserID returns the authenticated user's id
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
