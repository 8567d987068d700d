package signalling

import (
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-relay/internal/api"
	"voice-relay/internal/config"
	"voice-relay/internal/domain"
	"voice-relay/internal/relay"
	"voice-relay/internal/repository/memory"
	"voice-relay/internal/rtc"
	"voice-relay/internal/service"
	"voice-relay/internal/sockets"
)

// Server wires the websocket signaling endpoint, the admin API and the
// metrics endpoint to the session registry, the relay engine and the
// room/user services.
type Server struct {
	app           *fiber.App
	configManager *config.Manager

	clientSockets *sockets.SocketPool
	registry      *rtc.Registry
	engine        *relay.Engine
	users         *service.UserService
	rooms         *service.RoomService
	auth          *AuthHandler
	sessions      *SessionHandler
}

func NewServer(manager *config.Manager, app *fiber.App) (*Server, error) {
	cfg := manager.Get()

	factory, err := rtc.NewPionFactory(&cfg.WebRTC, cfg.Server.PublicIP)
	if err != nil {
		return nil, err
	}

	engine := relay.NewEngine(
		relay.WithTickInterval(cfg.Relay.TickInterval()),
		relay.WithTimestampStep(cfg.Relay.TimestampStep),
		relay.WithQueueLimit(cfg.Relay.MaxQueuePackets),
	)

	userRepo := memory.NewUserRepository()
	roomRepo := memory.NewRoomRepository()
	users := service.NewUserService(userRepo)
	rooms := service.NewRoomService(roomRepo, userRepo, engine, cfg.Relay.MultiRoom)

	clientSockets := sockets.NewSocketPool()

	server := &Server{
		app:           app,
		configManager: manager,
		clientSockets: clientSockets,
		engine:        engine,
		users:         users,
		rooms:         rooms,
		auth:          NewAuthHandler(manager),
		sessions:      NewSessionHandler(clientSockets),
	}

	server.registry = rtc.NewRegistry(factory, rtc.Hooks{
		OnConnected:    server.onSessionConnected,
		OnDisconnected: server.onSessionGone,
		OnAudio:        server.onInboundAudio,
	})

	manager.SetUpdateCallback(func(c *config.AppConfig) {
		rooms.SetMultiRoom(c.Relay.MultiRoom)
	})

	return server, nil
}

// Start launches the relay tick loop.
func (s *Server) Start() {
	s.engine.Start()
}

func (s *Server) Close() {
	s.engine.Stop()
	s.registry.Close()
	s.clientSockets.Close()
}

// SetupRoutes mounts the websocket endpoint, the admin API and /metrics.
func (s *Server) SetupRoutes() {
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.app.Get("/ws/client", websocket.New(func(c *websocket.Conn) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic in /ws/client", "error", err)
			}
		}()

		s.handleClientSocket(c)
	}))

	s.setupAdminApi()

	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (s *Server) handleClientSocket(c *websocket.Conn) {
	if !s.auth.AuthenticateClient(c) {
		return
	}

	session := s.sessions.RegisterClientSession(c)
	defer session.Cleanup()

	loop := NewConnectionLoop(session.Socket, session.SocketID, s.pingInterval())
	loop.Start()
	defer loop.Stop()

	handler := NewClientHandler(s, session, loop)
	defer handler.Disconnect()

	for {
		var message api.ClientMessage
		if err := session.Socket.ReadJSON(&message); err != nil {
			slog.Info("client disconnected", "socketID", session.SocketID, "reason", err.Error())
			break
		}
		handler.Process(message)
	}
}

func (s *Server) pingInterval() time.Duration {
	cfg := s.configManager.Get()
	return time.Duration(cfg.Server.PingInterval) * time.Millisecond
}

// onSessionConnected attaches the user to the relay for every room they are
// in and flips their in-call flag.
func (s *Server) onSessionConnected(userID string, session domain.MediaSession) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		slog.Warn("connected session for unknown user", "userID", userID)
		return
	}

	for _, roomID := range userRooms(user) {
		s.engine.Attach(roomID, userID, session)
	}

	if err := s.users.SetInCall(userID, true); err == nil {
		s.broadcastUsers()
	}
}

// onSessionGone detaches the user from the relay everywhere.
func (s *Server) onSessionGone(userID string) {
	s.engine.DetachUser(userID)
	if err := s.users.SetInCall(userID, false); err == nil {
		s.broadcastUsers()
	}
}

// onInboundAudio queues a speaker's packet for each room they are in.
func (s *Server) onInboundAudio(userID string, payload []byte) {
	user, err := s.users.GetUser(userID)
	if err != nil {
		return
	}
	for _, roomID := range userRooms(user) {
		s.engine.Ingest(roomID, userID, payload)
	}
}

// syncAttachments realigns the user's relay attachments with their current
// room memberships. Called after join/leave while a session is connected.
func (s *Server) syncAttachments(userID string) {
	s.engine.DetachUser(userID)

	session, ok := s.registry.ConnectedSession(userID)
	if !ok {
		return
	}

	user, err := s.users.GetUser(userID)
	if err != nil {
		return
	}
	for _, roomID := range userRooms(user) {
		s.engine.Attach(roomID, userID, session)
	}
}

func userRooms(user domain.User) []string {
	rooms := make([]string, 0, 1+len(user.SideRoomIDs))
	if user.RoomID != "" {
		rooms = append(rooms, user.RoomID)
	}
	rooms = append(rooms, user.SideRoomIDs...)
	return rooms
}

func (s *Server) broadcastRooms() {
	rooms, err := s.rooms.GetAllRooms()
	if err != nil {
		slog.Error("failed to list rooms", "error", err)
		return
	}
	s.clientSockets.Broadcast(api.ClientMessage{
		Event: api.ClientMessageEventUpdateRooms,
		Rooms: api.ToApiRooms(rooms),
	})
}

func (s *Server) broadcastUsers() {
	users, err := s.users.GetAll()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		return
	}
	s.clientSockets.Broadcast(api.ClientMessage{
		Event: api.ClientMessageEventUpdateUsers,
		Users: api.ToApiUsers(users),
	})
}

// notifyRoom sends the message to every member of the room except the given
// user, over their registered connections.
func (s *Server) notifyRoom(roomID string, exceptUserID string, message api.ClientMessage) {
	room, err := s.rooms.GetRoom(roomID)
	if err != nil {
		return
	}

	for memberID := range room.Members {
		if memberID == exceptUserID {
			continue
		}
		member, err := s.users.GetUser(memberID)
		if err != nil || member.ConnectionID == "" {
			continue
		}
		if socket := s.clientSockets.GetSocket(sockets.SocketID(member.ConnectionID)); socket != nil {
			_ = socket.WriteJSON(message)
		}
	}
}
