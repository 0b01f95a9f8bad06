package apiv1

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"microloan-backend/controllers"
	pdfexport "microloan-backend/lib/export/pdf"
	loanfunding "microloan-backend/lib/loan-funding"
	"microloan-backend/middleware"
	apimodels "microloan-backend/models/api"
)

type loanApiController struct {
	controllers.BaseAPIController
}

func InitLoanApiRouters(app fiber.Router) {
	controller := loanApiController{}
	app.Route("loans", func(router fiber.Router) {
		router.Get(":id/schedule", controller.schedule)
	})
}

// @Summary Repayment schedule
// @Tags Loans
// @Description PDF repayment schedule, json with ?format=json
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "loan ID"
// @Param   format          	query   string  				    	false        "json or pdf"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/loans/{id}/schedule [get]
func (c *loanApiController) schedule(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	schedule, err := loanfunding.Instance.Schedule(ctx.UserContext(), middleware.GetActor(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to build repayment schedule")
	}
	if ctx.Query("format") == "json" {
		return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(schedule))
	}
	file, err := pdfexport.GenerateSchedule(*schedule)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to render repayment schedule")
	}
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="schedule_%s.pdf"`, id))
	return ctx.Status(fiber.StatusOK).Send(file)
}
