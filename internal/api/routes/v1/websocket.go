package v1

import (
	"collabrio-backend/internal/libraries"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func registerWebSocket(r fiber.Router, deps Deps) {
	// Middleware to allow WebSocket upgrade
	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	r.Get("/ws", libraries.WebSocketHandler(deps.Hub, deps.Boards.CanWatch))
}
