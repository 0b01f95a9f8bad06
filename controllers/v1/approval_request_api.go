package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"microloan-backend/controllers"
	approvalrequest "microloan-backend/lib/approval-request"
	"microloan-backend/middleware"
	apimodels "microloan-backend/models/api"
	approvalapimodels "microloan-backend/models/api/approval"
)

// request_data is a small json document
const submitBodyLimit = 256 * 1024

type approvalRequestApiController struct {
	controllers.BaseAPIController
}

func InitApprovalRequestApiRouters(app fiber.Router) {
	controller := approvalRequestApiController{}
	app.Route("approval_requests", func(router fiber.Router) {
		router.Post("", middleware.WithBodyLimit(submitBodyLimit), controller.submit)
		router.Post("list", controller.list)
		router.Get("statistics", controller.statistics)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Get("history", controller.history)
			idRoute.Put("status", middleware.ReviewerRequired(), controller.updateStatus)
			idRoute.Put("assign", middleware.ReviewerRequired(), controller.assign)
			idRoute.Post("process", middleware.ReviewerRequired(), controller.process)
		})
	})
}

// @Summary Submit
// @Tags Approval requests
// @Description Submit an approval request, it starts in status pending
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.SubmitRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.SubmitResponse}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 413 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_requests [post]
func (c *approvalRequestApiController) submit(ctx *fiber.Ctx) error {
	var payload approvalapimodels.SubmitRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := approvalrequest.Instance.Submit(ctx.UserContext(), middleware.GetActor(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to submit approval request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(approvalapimodels.SubmitResponse{ID: id}))
}

// @Summary List
// @Tags Approval requests
// @Description Newest first. Clients only get their own requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 approvalapimodels.ListFilter	true	"request body"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_requests/list [post]
func (c *approvalRequestApiController) list(ctx *fiber.Ctx) error {
	var payload approvalapimodels.ListFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := approvalrequest.Instance.List(ctx.UserContext(), middleware.GetActor(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to list approval requests")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Statistics
// @Tags Approval requests
// @Description Counters by status, type and priority and the average processing time in hours
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.Statistics}
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_requests/statistics [get]
func (c *approvalRequestApiController) statistics(ctx *fiber.Ctx) error {
	stat, err := approvalrequest.Instance.Statistics(ctx.UserContext(), middleware.GetActor(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get statistics")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(stat))
}

// @Summary Get by ID
// @Tags Approval requests
// @Description Get by ID
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_requests/{id} [get]
func (c *approvalRequestApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := approvalrequest.Instance.Get(ctx.UserContext(), middleware.GetActor(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get approval request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary History
// @Tags Approval requests
// @Description Workflow history, oldest first
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=[]approvalapimodels.HistoryView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_requests/{id}/history [get]
func (c *approvalRequestApiController) history(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := approvalrequest.Instance.History(ctx.UserContext(), middleware.GetActor(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get workflow history")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Change status
// @Tags Approval requests
// @Description Moves the request through the status machine. Approving a loan application funds the loan
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 approvalapimodels.UpdateStatusRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_requests/{id}/status [put]
func (c *approvalRequestApiController) updateStatus(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.UpdateStatusRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := approvalrequest.Instance.UpdateStatus(ctx.UserContext(), middleware.GetActor(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to change status")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Assign
// @Tags Approval requests
// @Description Assign an open request to a reviewer
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 approvalapimodels.AssignRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/approval_requests/{id}/assign [put]
func (c *approvalRequestApiController) assign(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload approvalapimodels.AssignRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := approvalrequest.Instance.Assign(ctx.UserContext(), middleware.GetActor(ctx), id, payload.AssigneeID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to assign approval request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Fund loan
// @Tags Approval requests
// @Description Converts an approved loan application into a loan. Repeated calls return the same loan
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=approvalapimodels.ProcessResponse}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 503 {object} apimodels.Response
// @router /api/v1/approval_requests/{id}/process [post]
func (c *approvalRequestApiController) process(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := approvalrequest.Instance.Process(ctx.UserContext(), middleware.GetActor(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to fund loan")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}
