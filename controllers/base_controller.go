package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"microloan-backend/lib/apperrors"
	"microloan-backend/middleware"
	apimodels "microloan-backend/models/api"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("failed to parse request body")
		return errors.New("failed to read request data")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetParam(ctx, "id")
}

func (c *BaseAPIController) GetParam(ctx *fiber.Ctx, name string) (string, error) {
	value := ctx.Params(name)
	if value == "" {
		return "", errors.Errorf("path parameter %s is required", name)
	}
	return value, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path()).
		WithField("user_id", middleware.GetActor(ctx).UserID)
}

// SendError maps the business error taxonomy to a status code. Unknown errors are logged
// and answered with msg only.
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	status, text := ErrorStatus(err)
	if status == fiber.StatusInternalServerError {
		logger.WithError(err).Error(msg)
		text = msg
	}
	return ctx.Status(status).JSON(apimodels.NewError(text))
}

func ErrorStatus(err error) (int, string) {
	var (
		validation *apperrors.ValidationError
		transition *apperrors.InvalidTransitionError
		denied     *apperrors.RoleOperationDeniedError
	)
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, validation.Error()
	case errors.As(err, &transition):
		return fiber.StatusConflict, transition.Error()
	case errors.Is(err, apperrors.ErrNotApproved), errors.Is(err, apperrors.ErrWrongType):
		return fiber.StatusConflict, err.Error()
	case errors.As(err, &denied):
		return fiber.StatusUnprocessableEntity, denied.Reason
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, apperrors.ErrForbidden):
		return fiber.StatusForbidden, "operation not permitted"
	case apperrors.IsTransient(err):
		return fiber.StatusServiceUnavailable, "service temporarily unavailable, retry later"
	}
	return fiber.StatusInternalServerError, ""
}
