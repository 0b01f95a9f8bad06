package apiv1

import (
	"github.com/gofiber/fiber/v2"
	"microloan-backend/controllers"
	userrole "microloan-backend/lib/user-role"
	"microloan-backend/middleware"
	"microloan-backend/models"
	apimodels "microloan-backend/models/api"
	roleapimodels "microloan-backend/models/api/role"
)

type roleApiController struct {
	controllers.BaseAPIController
}

func InitRoleApiRouters(app fiber.Router) {
	controller := roleApiController{}
	app.Get("me/roles", controller.myRoles)
	app.Route("users/:id/roles", func(router fiber.Router) {
		router.Use(middleware.AdminRequired())
		router.Get("", controller.userRoles)
		router.Put(":role", controller.assign)
		router.Delete(":role", controller.remove)
	})
}

// @Summary My roles
// @Tags Roles
// @Description Roles of the authenticated user
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]roleapimodels.RoleView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/me/roles [get]
func (c *roleApiController) myRoles(ctx *fiber.Ctx) error {
	roles, err := userrole.Instance.MyRoles(ctx.UserContext(), middleware.GetActor(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get roles")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(roleapimodels.RolesConvert(roles)))
}

// @Summary User roles
// @Tags Roles
// @Description Current roles of a user and the operations the role policy allows
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "user ID"
// @Success 200 {object} apimodels.Response{data=roleapimodels.UserRolesView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/users/{id}/roles [get]
func (c *roleApiController) userRoles(ctx *fiber.Ctx) error {
	userID, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := userrole.Instance.Allowed(ctx.UserContext(), middleware.GetActor(ctx), userID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get user roles")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Assign role
// @Tags Roles
// @Description Assign a role when the role policy allows it
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "user ID"
// @Param   role          		path    string  				    	true         "admin, loan_officer or client"
// @Success 200 {object} apimodels.Response{data=roleapimodels.ChangeResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 422 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/users/{id}/roles/{role} [put]
func (c *roleApiController) assign(ctx *fiber.Ctx) error {
	userID, role, err := c.roleParams(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := userrole.Instance.Assign(ctx.UserContext(), middleware.GetActor(ctx), userID, role)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to assign role")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Remove role
// @Tags Roles
// @Description Remove a role when the role policy allows it
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "user ID"
// @Param   role          		path    string  				    	true         "admin, loan_officer or client"
// @Success 200 {object} apimodels.Response{data=roleapimodels.ChangeResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 422 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/users/{id}/roles/{role} [delete]
func (c *roleApiController) remove(ctx *fiber.Ctx) error {
	userID, role, err := c.roleParams(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := userrole.Instance.Remove(ctx.UserContext(), middleware.GetActor(ctx), userID, role)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to remove role")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

func (c *roleApiController) roleParams(ctx *fiber.Ctx) (string, models.UserRole, error) {
	userID, err := c.GetID(ctx)
	if err != nil {
		return "", "", err
	}
	role, err := c.GetParam(ctx, "role")
	if err != nil {
		return "", "", err
	}
	return userID, models.UserRole(role), nil
}
