package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

var hubSecret = []byte("hub-secret")

func hubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, hubSecret) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func hubToken(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "9",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(hubSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func waitClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	srv := hubServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, hubToken(t)), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitClients(t, hub, 1)

	hub.Publish("pedido.creado", map[string]int{"id": 3})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var ev struct {
		Event string         `json:"event"`
		Data  map[string]int `json:"data"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Event != "pedido.creado" || ev.Data["id"] != 3 {
		t.Fatalf("unexpected frame %s (%v)", msg, err)
	}

	_ = conn.Close()
	waitClients(t, hub, 0)
}

func TestHubRejectsMissingOrInvalidToken(t *testing.T) {
	hub := NewHub()
	srv := hubServer(t, hub)

	for _, token := range []string{"", "not-a-jwt"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
		if err == nil {
			t.Fatalf("token %q: expected handshake failure", token)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %+v", token, resp)
		}
	}
}

func TestHubStopDoesNotBlockClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	srv := hubServer(t, hub)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, hubToken(t)), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitClients(t, hub, 1)

	cancel()
	<-stopped

	// the connected client is closed by the hub
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected the connection to close")
	}

	// a late client is turned away instead of blocking the handler
	token := hubToken(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		late, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
		if err == nil {
			_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, _ = late.ReadMessage()
			late.Close()
		}
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("late client blocked after the hub stopped")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients after stop, got %d", hub.ClientCount())
	}
}
