package signalling

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"

	"voice-relay/internal/metrics"
	"voice-relay/internal/sockets"
)

type Session struct {
	Socket   sockets.Socket
	SocketID sockets.SocketID
	Cleanup  func()
}

type SessionHandler struct {
	clientSockets *sockets.SocketPool
}

func NewSessionHandler(clientSockets *sockets.SocketPool) *SessionHandler {
	return &SessionHandler{clientSockets: clientSockets}
}

func (h *SessionHandler) RegisterClientSession(conn *websocket.Conn) *Session {
	socketID := sockets.SocketID(conn.NetConn().RemoteAddr().String())
	socket := h.clientSockets.AddSocket(conn)

	metrics.ActiveWebSocketConnections.Inc()
	metrics.WebSocketConnectionsTotal.Inc()

	cleanup := func() {
		metrics.ActiveWebSocketConnections.Dec()
		metrics.WebSocketDisconnectionsTotal.Inc()
		h.clientSockets.CloseSocket(socketID)
	}

	slog.Info("client session started", "socketID", socketID)

	return &Session{
		Socket:   socket,
		SocketID: socketID,
		Cleanup:  cleanup,
	}
}
