package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"microloan-backend/config"
	authutils "microloan-backend/lib/utils/auth-utils"
	"microloan-backend/models"
	apimodels "microloan-backend/models/api"
)

const actorLocal = "actor"

// RoleReader resolves the current role set of the authenticated user
type RoleReader interface {
	RolesOf(ctx context.Context, userID string) ([]models.UserRole, error)
}

func GetUserID(ctx *fiber.Ctx) string {
	return authutils.GetStringClaim(ctx, "sub")
}

func GetUserEmail(ctx *fiber.Ctx) string {
	return authutils.GetStringClaim(ctx, "email")
}

// Identity builds the request actor from the token and the stored roles
func Identity(reader RoleReader) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID := GetUserID(ctx)
		if userID == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError("token has no subject"))
		}
		roles, err := reader.RolesOf(ctx.UserContext(), userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("failed to load user roles")
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(apimodels.NewError("failed to load user roles"))
		}
		ctx.Locals(actorLocal, models.Actor{
			UserID:     userID,
			Email:      GetUserEmail(ctx),
			Roles:      roles,
			SuperAdmin: config.Conf.IsSuperAdmin(userID),
		})
		return ctx.Next()
	}
}

func GetActor(ctx *fiber.Ctx) models.Actor {
	actor, ok := ctx.Locals(actorLocal).(models.Actor)
	if !ok {
		return models.Actor{UserID: GetUserID(ctx), Email: GetUserEmail(ctx)}
	}
	return actor
}
