package signalling

import (
	"log/slog"

	"github.com/pion/webrtc/v4"

	"voice-relay/internal/api"
	"voice-relay/internal/domain"
	"voice-relay/internal/metrics"
	"voice-relay/internal/rtc"
)

// ClientHandler processes the message stream of one websocket client and
// tracks the user registered on that connection.
type ClientHandler struct {
	server  *Server
	session *Session
	loop    *ConnectionLoop
	userID  string
}

func NewClientHandler(server *Server, session *Session, loop *ConnectionLoop) *ClientHandler {
	return &ClientHandler{
		server:  server,
		session: session,
		loop:    loop,
	}
}

func (h *ClientHandler) Process(m api.ClientMessage) {
	metrics.SignallingMessagesTotal.WithLabelValues(string(m.Event), "in").Inc()

	switch m.Event {
	case api.ClientMessageEventRegister:
		h.handleRegister(m)
	case api.ClientMessageEventCreateRoom:
		h.handleCreateRoom(m)
	case api.ClientMessageEventJoinRoom:
		h.handleJoinRoom(m)
	case api.ClientMessageEventLeaveRoom:
		h.handleLeaveRoom(m)
	case api.ClientMessageEventOfferRequest:
		h.handleOfferRequest()
	case api.ClientMessageEventAnswer:
		h.handleAnswer(m)
	case api.ClientMessageEventClientIce:
		h.handleClientIce(m)
	case api.ClientMessageEventPong:
		slog.Debug("received pong", "socketID", h.session.SocketID)
	default:
		slog.Debug("unhandled client message", "socketID", h.session.SocketID, "event", m.Event)
	}
}

// Disconnect tears down everything this connection owns: the media session,
// room memberships and the user record itself.
func (h *ClientHandler) Disconnect() {
	if h.userID == "" {
		return
	}

	h.server.registry.CloseSession(h.userID)

	user, err := h.server.users.GetUser(h.userID)
	if err == nil {
		for _, roomID := range userRooms(user) {
			h.server.notifyRoom(roomID, h.userID, api.ClientMessage{
				Event: api.ClientMessageEventUserLeft,
				User:  ptrUserInfo(api.ToApiUser(user)),
			})
		}
	}

	if err := h.server.rooms.LeaveAll(h.userID); err != nil {
		slog.Error("failed to leave rooms on disconnect", "userID", h.userID, "error", err)
	}
	if err := h.server.users.Remove(h.userID); err != nil {
		slog.Debug("user already removed", "userID", h.userID)
	}

	h.server.broadcastRooms()
	h.server.broadcastUsers()
	h.userID = ""
}

func (h *ClientHandler) handleRegister(m api.ClientMessage) {
	if m.Register == nil || h.userID != "" {
		return
	}

	user, err := h.server.users.Register(m.Register.Username, string(h.session.SocketID))
	if err != nil {
		slog.Error("failed to register user", "socketID", h.session.SocketID, "error", err)
		return
	}
	h.userID = user.ID

	h.send(api.ClientMessage{
		Event: api.ClientMessageEventRegistered,
		User:  ptrUserInfo(api.ToApiUser(user)),
	})
	h.sendSnapshot()
	h.server.broadcastUsers()
}

func (h *ClientHandler) handleCreateRoom(m api.ClientMessage) {
	if m.Room == nil || m.Room.Name == nil {
		return
	}

	room, err := h.server.rooms.CreateRoom(*m.Room.Name)
	if err != nil {
		slog.Error("failed to create room", "error", err)
		return
	}

	slog.Info("room created", "roomID", room.ID, "name", room.Name)
	h.server.broadcastRooms()
}

func (h *ClientHandler) handleJoinRoom(m api.ClientMessage) {
	if m.Room == nil || m.Room.RoomID == nil || h.userID == "" {
		return
	}
	roomID := *m.Room.RoomID

	if err := h.server.rooms.Join(h.userID, roomID); err != nil {
		slog.Warn("failed to join room", "userID", h.userID, "roomID", roomID, "error", err)
		return
	}

	h.server.syncAttachments(h.userID)

	if user, err := h.server.users.GetUser(h.userID); err == nil {
		h.server.notifyRoom(roomID, h.userID, api.ClientMessage{
			Event: api.ClientMessageEventUserJoined,
			User:  ptrUserInfo(api.ToApiUser(user)),
		})
	}

	h.server.broadcastRooms()
	h.server.broadcastUsers()
}

func (h *ClientHandler) handleLeaveRoom(m api.ClientMessage) {
	if h.userID == "" {
		return
	}

	var roomID string
	if m.Room != nil && m.Room.RoomID != nil {
		roomID = *m.Room.RoomID
	}

	user, err := h.server.users.GetUser(h.userID)
	if err != nil {
		return
	}
	if roomID == "" {
		roomID = user.RoomID
	}
	if roomID == "" {
		return
	}

	if err := h.server.rooms.Leave(h.userID, roomID); err != nil {
		slog.Warn("failed to leave room", "userID", h.userID, "roomID", roomID, "error", err)
		return
	}

	h.server.syncAttachments(h.userID)

	h.server.notifyRoom(roomID, h.userID, api.ClientMessage{
		Event: api.ClientMessageEventUserLeft,
		User:  ptrUserInfo(api.ToApiUser(user)),
	})

	h.server.broadcastRooms()
	h.server.broadcastUsers()
}

func (h *ClientHandler) handleOfferRequest() {
	if h.userID == "" {
		h.send(api.ClientMessage{Event: api.ClientMessageEventOfferFailed})
		return
	}

	offer, err := h.server.registry.CreateSession(h.userID, rtc.SessionCallbacks{
		OnServerICE: func(candidate webrtc.ICECandidateInit) {
			h.send(api.ClientMessage{
				Event: api.ClientMessageEventServerIce,
				Ice:   &api.IceMessage{Candidate: candidate},
			})
		},
		OnStateChange: func(state domain.ConnectionState) {
			slog.Debug("connection state", "userID", h.userID, "state", state)
		},
	})
	if err != nil {
		slog.Error("failed to create session", "userID", h.userID, "error", err)
		h.send(api.ClientMessage{Event: api.ClientMessageEventOfferFailed})
		return
	}

	h.send(api.ClientMessage{
		Event: api.ClientMessageEventOffer,
		Sdp:   &api.SdpMessage{Description: offer},
	})
}

func (h *ClientHandler) handleAnswer(m api.ClientMessage) {
	if m.Sdp == nil || h.userID == "" {
		return
	}
	if err := h.server.registry.SetRemoteDescription(h.userID, m.Sdp.Description); err != nil {
		slog.Error("failed to apply answer", "userID", h.userID, "error", err)
	}
}

func (h *ClientHandler) handleClientIce(m api.ClientMessage) {
	if m.Ice == nil || h.userID == "" {
		return
	}
	if err := h.server.registry.AddICECandidate(h.userID, m.Ice.Candidate); err != nil {
		slog.Error("failed to add ice candidate", "userID", h.userID, "error", err)
	}
}

// sendSnapshot pushes the current room and user lists to this client only.
func (h *ClientHandler) sendSnapshot() {
	if rooms, err := h.server.rooms.GetAllRooms(); err == nil {
		h.send(api.ClientMessage{
			Event: api.ClientMessageEventUpdateRooms,
			Rooms: api.ToApiRooms(rooms),
		})
	}
	if users, err := h.server.users.GetAll(); err == nil {
		h.send(api.ClientMessage{
			Event: api.ClientMessageEventUpdateUsers,
			Users: api.ToApiUsers(users),
		})
	}
}

func (h *ClientHandler) send(m api.ClientMessage) {
	metrics.SignallingMessagesTotal.WithLabelValues(string(m.Event), "out").Inc()
	h.loop.SendMessage(m)
}

func ptrUserInfo(u api.UserInfo) *api.UserInfo {
	return &u
}
