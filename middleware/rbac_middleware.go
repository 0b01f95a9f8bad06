package middleware

import (
	"github.com/gofiber/fiber/v2"
	"microloan-backend/models"
	apimodels "microloan-backend/models/api"
)

// RoleRequired passes super admins and holders of any of roles
func RoleRequired(roles ...models.UserRole) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		actor := GetActor(ctx)
		if actor.SuperAdmin {
			return ctx.Next()
		}
		for _, role := range roles {
			if actor.HasRole(role) {
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("operation not permitted"))
	}
}

func ReviewerRequired() fiber.Handler {
	return RoleRequired(models.ReviewerRoles...)
}

func AdminRequired() fiber.Handler {
	return RoleRequired(models.AdminRole)
}
