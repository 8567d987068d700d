package signalling

import (
	"log/slog"
	"net/netip"

	"github.com/gofiber/contrib/websocket"

	"voice-relay/internal/api"
	"voice-relay/internal/config"
	"voice-relay/internal/sockets"
)

type AuthHandler struct {
	configManager *config.Manager
}

func NewAuthHandler(manager *config.Manager) *AuthHandler {
	return &AuthHandler{configManager: manager}
}

func (h *AuthHandler) CheckCredential(credential string) bool {
	cfg := h.configManager.Get()
	return cfg.Security.AdminCredential == nil || *cfg.Security.AdminCredential == credential
}

func (h *AuthHandler) IsAdminIP(addrPort string) bool {
	ip, err := netip.ParseAddrPort(addrPort)
	if err != nil {
		slog.Error("failed to parse IP address", "addr", addrPort, "error", err)
		return false
	}

	cfg := h.configManager.Get()
	for _, n := range cfg.Security.AdminsRawNetworks {
		if n.Contains(ip.Addr()) {
			return true
		}
	}
	return false
}

// AuthenticateClient runs the optional credential handshake and, on success,
// pushes the peer connection config the client should dial with. With no
// credential configured the handshake is skipped.
func (h *AuthHandler) AuthenticateClient(c *websocket.Conn) bool {
	socketID := sockets.SocketID(c.NetConn().RemoteAddr().String())
	cfg := h.configManager.Get()

	if cfg.Security.AdminCredential != nil {
		if err := c.WriteJSON(api.ClientMessage{Event: api.ClientMessageEventAuthRequest}); err != nil {
			return false
		}

		var message api.ClientMessage
		if err := c.ReadJSON(&message); err != nil {
			slog.Debug("disconnected during auth", "socketID", socketID)
			return false
		}

		if message.Event != api.ClientMessageEventAuth || message.Auth == nil ||
			!h.CheckCredential(message.Auth.Credential) {
			accessMessage := "Forbidden. Incorrect credential"
			_ = c.WriteJSON(api.ClientMessage{
				Event:         api.ClientMessageEventAuthFailed,
				AccessMessage: &accessMessage,
			})
			slog.Warn("authentication failed", "socketID", socketID)
			return false
		}
	}

	if err := c.WriteJSON(api.ClientMessage{
		Event:    api.ClientMessageEventInitPeer,
		InitPeer: &api.PcConfigMessage{PcConfig: cfg.WebRTC.PeerConnectionConfig},
	}); err != nil {
		slog.Error("failed to send init_peer", "socketID", socketID)
		return false
	}

	return true
}
