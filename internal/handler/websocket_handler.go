package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/fortuna/fortuna-import/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler streams import events to subscribers at GET /ws
type WebSocketHandler struct {
	hub       *websocket.Hub
	anyOrigin bool
	origins   map[string]bool
	upgrader  ws.Upgrader
	logger    zerolog.Logger
}

// NewWebSocketHandler creates a WebSocketHandler accepting browser connections
// from allowedOrigins. A "*" entry accepts any origin.
func NewWebSocketHandler(hub *websocket.Hub, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:     hub,
		origins: make(map[string]bool, len(allowedOrigins)),
		logger:  log.Logger.With().Str("component", "event_stream").Logger(),
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			h.anyOrigin = true
		}
		h.origins[origin] = true
	}

	// Subscribers only listen, import batches can be large
	h.upgrader = ws.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		ReadBufferSize:    256,
		WriteBufferSize:   4096,
		EnableCompression: true,
		CheckOrigin:       h.checkOrigin,
	}

	return h
}

// checkOrigin accepts non-browser clients (no Origin header) and listed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.anyOrigin || h.origins[origin] {
		return true
	}

	h.logger.Warn().Str("origin", origin).Msg("Rejected subscriber origin")
	return false
}

// HandleWS upgrades the request and subscribes the connection to the hub
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error().Err(err).Str("remote_ip", c.RealIP()).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, h.hub)

	// Greeting goes out before any broadcast can reach the client
	if err := sendGreeting(client); err != nil {
		client.Close()
		return nil
	}
	h.hub.Register(client)

	h.logger.Info().
		Str("client_id", client.ID()).
		Str("remote_ip", c.RealIP()).
		Msg("Subscriber connected")

	go client.Serve()
	return nil
}

func sendGreeting(client *websocket.Client) error {
	data, err := websocket.StreamConnected(client.ID()).ToJSON()
	if err != nil {
		return err
	}
	return client.Send(data)
}
