package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"microloan-backend/controllers"
	approvalnotification "microloan-backend/lib/approval-notification"
	"microloan-backend/middleware"
	apimodels "microloan-backend/models/api"
	approvalapimodels "microloan-backend/models/api/approval"
)

type notificationApiController struct {
	controllers.BaseAPIController
}

func InitNotificationApiRouters(app fiber.Router) {
	controller := notificationApiController{}
	app.Route("notifications", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Get("unread_count", controller.unreadCount)
		router.Put("read_all", controller.markAllRead)
		router.Put(":id/read", controller.markRead)
	})
}

// @Summary List
// @Tags Notifications
// @Description Notifications of the authenticated user, newest first
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   unread          	query   bool  				    	false        "only unread"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.NotificationView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications [get]
func (c *notificationApiController) list(ctx *fiber.Ctx) error {
	list, err := approvalnotification.Instance.List(ctx.UserContext(), middleware.GetActor(ctx), ctx.QueryBool("unread", false))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to list notifications")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Unread count
// @Tags Notifications
// @Description Number of unread notifications
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.UnreadCount}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications/unread_count [get]
func (c *notificationApiController) unreadCount(ctx *fiber.Ctx) error {
	count, err := approvalnotification.Instance.UnreadCount(ctx.UserContext(), middleware.GetActor(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to count notifications")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.UnreadCount{Count: count}))
}

// @Summary Mark read
// @Tags Notifications
// @Description Idempotent, read_at keeps the first read time
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.NotificationView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications/{id}/read [put]
func (c *notificationApiController) markRead(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := approvalnotification.Instance.MarkRead(ctx.UserContext(), middleware.GetActor(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to mark notification read")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Mark all read
// @Tags Notifications
// @Description Marks every unread notification of the user read
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.MarkAllReadResult}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications/read_all [put]
func (c *notificationApiController) markAllRead(ctx *fiber.Ctx) error {
	updated, err := approvalnotification.Instance.MarkAllRead(ctx.UserContext(), middleware.GetActor(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to mark notifications read")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.MarkAllReadResult{Updated: updated}))
}
