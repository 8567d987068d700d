package signalling

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"voice-relay/internal/api"
	"voice-relay/internal/sockets"
)

func (s *Server) setupAdminApi() {
	s.app.Route("/api/admin", func(router fiber.Router) {
		router.Use(func(c *fiber.Ctx) error {
			if !s.auth.IsAdminIP(c.Context().RemoteAddr().String()) {
				return c.Status(fiber.StatusForbidden).SendString("Forbidden")
			}
			return c.Next()
		})

		router.Use(basicauth.New(basicauth.Config{
			Realm: "Forbidden",
			Authorizer: func(user, pass string) bool {
				cfg := s.configManager.Get()
				return cfg.Security.AdminCredential == nil ||
					user == "admin" && pass == *cfg.Security.AdminCredential
			},
		}))

		router.Get("/rooms", func(c *fiber.Ctx) error {
			rooms, err := s.rooms.GetAllRooms()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Failed to list rooms")
			}
			return c.JSON(api.ToApiRooms(rooms))
		})

		router.Get("/users", func(c *fiber.Ctx) error {
			users, err := s.users.GetAll()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Failed to list users")
			}
			return c.JSON(api.ToApiUsers(users))
		})

		router.Delete("/rooms/:id", func(c *fiber.Ctx) error {
			roomID := c.Params("id")
			if err := s.rooms.DeleteRoom(roomID); err != nil {
				return c.Status(fiber.StatusNotFound).SendString("Room not found")
			}
			s.broadcastRooms()
			s.broadcastUsers()
			return c.Status(fiber.StatusOK).SendString("Ok")
		})

		router.Post("/users/:id/disconnect", func(c *fiber.Ctx) error {
			userID := c.Params("id")
			user, err := s.users.GetUser(userID)
			if err != nil {
				return c.Status(fiber.StatusNotFound).SendString("User not found")
			}

			s.registry.CloseSession(userID)
			if user.ConnectionID != "" {
				s.clientSockets.CloseSocket(sockets.SocketID(user.ConnectionID))
			}
			return c.Status(fiber.StatusOK).SendString("Ok")
		})
	})
}
