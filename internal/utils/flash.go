package utils

import (
	"encoding/base64" // Cookie-safe encoding
	"encoding/json"   // Flash payload encoding
	"net/http"        // Cookie attributes

	"github.com/gin-gonic/gin" // Gin web framework
)

// Flash levels, used as CSS classes by the layout
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

const flashCookie = "flash"

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SetFlash queues a message for the next page the client loads
func SetFlash(c *gin.Context, level, message string) {
	b, err := json.Marshal([]Flash{{Level: level, Message: message}})
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(b), 0, "/", "", false, true)
}

// PopFlashes returns the queued messages and clears them
func PopFlashes(c *gin.Context) []Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil // Nothing queued
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", "", false, true) // Consume the cookie
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(b, &flashes); err != nil {
		return nil
	}
	return flashes
}
