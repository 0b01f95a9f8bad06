package ws

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	wsclient "microloan-backend/lib/ws/client"
	connectionhub "microloan-backend/lib/ws/hub/connection-hub"
	"microloan-backend/middleware"
)

func InitWs(router fiber.Router) {
	router.Use("", func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		ctx.Locals("userID", middleware.GetUserID(ctx))
		return ctx.Next()
	})
	router.Get("/", websocket.New(changeChannelHandler))
}

// @Summary Request change channel
// @Tags Websocket
// @Description Pushes request_changed and notification messages to the connected user
// @Param   Authorization		header		string		true		"Authorization token"
// @Success 200 {object} wsmodels.ServerMessage
// @Failure 400
// @Failure 403
// @Failure 500
// @router /ws [get]
func changeChannelHandler(c *websocket.Conn) {
	userID, _ := c.Locals("userID").(string)
	client := wsclient.NewClient(userID, c)
	connectionhub.Instance.AddClient(userID, c)
	defer func() {
		connectionhub.Instance.DeleteClient(userID)
	}()
	client.Dispatch()
}
