package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/api/middleware"
	"github.com/dom/watchnest/internal/service"
	"github.com/dom/watchnest/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
	upgrader    ws.Upgrader
	logger      *log.Logger
	writeError  middleware.ErrorWriter
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService, allowedOrigins []string, logger *log.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		logger:     logger,
		writeError: ErrorWriter(logger),
	}
}

// Handle authenticates with the token query parameter, falling back to the
// access token cookie, and upgrades the connection.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.TokenFromRequest(r)
	}

	caller, err := h.authService.ResolveCaller(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, caller.User.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	client.Send(websocket.MessageTypeConnected, websocket.ConnectedPayload{UserID: caller.User.ID.String()})
}
