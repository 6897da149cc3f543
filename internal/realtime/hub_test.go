package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/", func(c *gin.Context) {
		if id, err := strconv.Atoi(c.Query("as")); err == nil {
			c.Set("userID", uint(id))
		}
		hub.HandleWS(c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/?as=" + strconv.Itoa(userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNotifyBalanceReachesOnlyOwner(t *testing.T) {
	hub := NewHub()
	t.Cleanup(func() { hub.Close() })
	srv := newServer(t, hub)

	alice := dial(t, srv, 1)
	bob := dial(t, srv, 2)
	require.Eventually(t, func() bool { return hub.Sessions() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.NotifyBalance(1, decimal.RequireFromString("800"))

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)
	var msg BalanceMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, BalanceMessage{Type: "balance", TotalBalance: "800.00"}, msg)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err, "another user's session must not receive the balance")
}

func TestHandleWSRequiresUser(t *testing.T) {
	hub := NewHub()
	t.Cleanup(func() { hub.Close() })
	srv := newServer(t, hub)

	resp, err := http.Get(srv.URL + "/ws/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
