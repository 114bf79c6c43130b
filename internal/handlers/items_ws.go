package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/AnshRaj112/ridit-backend/internal/middleware"
	"github.com/AnshRaj112/ridit-backend/internal/services"
	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 60 * time.Second
)

var itemsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced at the HTTP layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ItemsWebSocket streams item lifecycle events for the authenticated user.
// The token comes from "Authorization: Bearer" or ?token= for browsers.
func ItemsWebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	claims, err := services.ValidateSession(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	userID := claims.Subject

	conn, err := itemsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	hub := services.DefaultItemHub()
	hub.Register(userID, conn)
	defer func() {
		hub.Unregister(userID, conn)
		conn.Close()
	}()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	// Clients only listen; reading drives pong handling and detects close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("items websocket closed for %s: %v", userID, err)
			}
			return
		}
	}
}
