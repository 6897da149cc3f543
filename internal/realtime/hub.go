// Package realtime pushes balance changes to a user's open browser tabs.
package realtime

import (
	"encoding/json" // Message encoding
	"net/http"      // HTTP status codes
	"time"          // Keep-alive settings

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/olahol/melody"      // WebSocket session manager
	"github.com/shopspring/decimal" // Money amounts
	"github.com/sirupsen/logrus"    // Structured logging
)

const userKey = "user_id"

// BalanceMessage is sent after every balance recompute
type BalanceMessage struct {
	Type         string `json:"type"`
	TotalBalance string `json:"total_balance"`
}

// Hub tracks websocket sessions per user
type Hub struct {
	m *melody.Melody
}

// NewHub creates a hub with keep-alive pings suited to proxied hosting
func NewHub() *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 512 // Clients only listen
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		userID, _ := s.Get(userKey)
		logrus.WithField("user_id", userID).Debug("Live session connected")
	})
	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get(userKey)
		logrus.WithField("user_id", userID).Debug("Live session disconnected")
	})
	m.HandleError(func(s *melody.Session, err error) {
		userID, _ := s.Get(userKey)
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Live session error")
	})
	return &Hub{m: m}
}

// HandleWS upgrades an authenticated request to a websocket session
func (h *Hub) HandleWS(c *gin.Context) {
	userID, ok := c.Get("userID") // Set by the session middleware
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err := h.m.HandleRequestWithKeys(c.Writer, c.Request, map[string]any{userKey: userID}); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Websocket upgrade failed")
	}
}

// NotifyBalance sends the new balance to every session of userID
func (h *Hub) NotifyBalance(userID uint, balance decimal.Decimal) {
	msg, err := json.Marshal(BalanceMessage{Type: "balance", TotalBalance: balance.StringFixed(2)})
	if err != nil {
		return
	}
	err = h.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		id, exists := s.Get(userKey)
		return exists && id == userID
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Balance broadcast failed")
	}
}

// Sessions is the number of open websocket sessions
func (h *Hub) Sessions() int {
	return h.m.Len()
}

// Close disconnects every session
func (h *Hub) Close() error {
	return h.m.Close()
}
