package handler

import (
	"log"
	"net/http"

	"quill-blog-server/internal/events"
	"quill-blog-server/pkg/cookies"
	"quill-blog-server/pkg/jwt"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type EventsHandler struct {
	manager      *events.Manager
	accessSecret string
	upgrader     ws.Upgrader
}

func NewEventsHandler(manager *events.Manager, accessSecret string, readBufferSize, writeBufferSize int) *EventsHandler {
	return &EventsHandler{
		manager:      manager,
		accessSecret: accessSecret,
		upgrader: ws.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection upgrades an authenticated client onto the live feed.
// Browsers send the access-token cookie automatically; non-browser clients
// can pass the token as a query parameter instead.
func (h *EventsHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(cookies.AccessTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	claims, err := jwt.ValidateToken(token, h.accessSecret)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("failed to upgrade feed connection: %v", err)
		return
	}

	client := events.NewClient(uuid.New().String(), claims.UserID, conn, h.manager)

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
