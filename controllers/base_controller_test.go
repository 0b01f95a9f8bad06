package controllers

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"microloan-backend/lib/apperrors"
	"microloan-backend/models"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		text   string
	}{
		{`validation`, apperrors.NewValidation("amount is required"), fiber.StatusBadRequest, "amount is required"},
		{`invalid transition`, &apperrors.InvalidTransitionError{From: models.RequestStatusApproved, To: models.RequestStatusPending},
			fiber.StatusConflict, "status transition from approved to pending is not allowed"},
		{`not approved`, errors.Wrap(apperrors.ErrNotApproved, "process"), fiber.StatusConflict, "process: approval request is not approved"},
		{`role denied keeps the reason`, &apperrors.RoleOperationDeniedError{Reason: "client role is exclusive"}, fiber.StatusUnprocessableEntity, "client role is exclusive"},
		{`not found`, apperrors.ErrNotFound, fiber.StatusNotFound, "not found"},
		{`forbidden`, apperrors.ErrForbidden, fiber.StatusForbidden, "operation not permitted"},
		{`transient`, apperrors.FromStore(context.DeadlineExceeded), fiber.StatusServiceUnavailable, "service temporarily unavailable, retry later"},
		{`unknown`, errors.New("pq: syntax error"), fiber.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, text := ErrorStatus(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.text, text)
		})
	}
}
