package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"microloan-backend/controllers"
	"microloan-backend/lib/kyc"
	"microloan-backend/middleware"
	apimodels "microloan-backend/models/api"
)

type kycApiController struct {
	controllers.BaseAPIController
}

func InitKycApiRouters(app fiber.Router) {
	controller := kycApiController{}
	app.Route("kyc", func(router fiber.Router) {
		router.Get("documents/:id/url", controller.documentURL)
	})
}

// @Summary Document download link
// @Tags KYC
// @Description Presigned download URL of a KYC document, for the owner or a reviewer
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "document ID"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 503 {object} apimodels.Response
// @router /api/v1/kyc/documents/{id}/url [get]
func (c *kycApiController) documentURL(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	url, err := kyc.Instance.DocumentURL(ctx.UserContext(), middleware.GetActor(ctx), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get document url")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(url))
}
