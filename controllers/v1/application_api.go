package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"microloan-backend/controllers"
	unifiedview "microloan-backend/lib/unified-view"
	"microloan-backend/middleware"
	apimodels "microloan-backend/models/api"
	applicationapimodels "microloan-backend/models/api/application"
)

type applicationApiController struct {
	controllers.BaseAPIController
}

func InitApplicationApiRouters(app fiber.Router) {
	controller := applicationApiController{}
	app.Route("applications", func(router fiber.Router) {
		router.Use(middleware.ReviewerRequired())
		router.Post("list", controller.list)
		router.Post("export", controller.export)
	})
}

// @Summary Unified list
// @Tags Loan applications
// @Description Loan applications as requests until funded and as loans afterwards, newest first
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 applicationapimodels.Filter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]applicationapimodels.ApplicationView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/applications/list [post]
func (c *applicationApiController) list(ctx *fiber.Ctx) error {
	var payload applicationapimodels.Filter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, rowCount, err := unifiedview.Instance.List(ctx.UserContext(), middleware.GetActor(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to list loan applications")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Unified list export
// @Tags Loan applications
// @Description XLSX workbook with every row matching the filter
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 applicationapimodels.Filter	true	"request body"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/applications/export [post]
func (c *applicationApiController) export(ctx *fiber.Ctx) error {
	var payload applicationapimodels.Filter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	buf, err := unifiedview.Instance.Export(ctx.UserContext(), middleware.GetActor(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to export loan applications")
	}
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="loan_applications.xlsx"`)
	return ctx.Status(fiber.StatusOK).Send(buf.Bytes())
}
