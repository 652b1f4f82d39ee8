package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/logger"
	"alfredoptarigan/career-hub/internal/models"
)

const (
	UserIDHeader = "X-User-ID"
	userIDLocal  = "userID"
)

// NewErrorHandler renders every error returned by a handler as an
// ErrorResponse. Technical details are only exposed when includeDetails is set.
func NewErrorHandler(log logger.Logger, includeDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		resp := models.ErrorResponse{
			Error: "Internal server error",
			Code:  fiber.StatusInternalServerError,
			Kind:  string(apperrors.KindInternal),
		}

		var appErr *apperrors.AppError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &appErr):
			resp.Code = appErr.StatusCode()
			resp.Error = appErr.Message
			resp.Kind = string(appErr.Kind)
			if includeDetails {
				resp.Details = appErr.Detail()
			}
		case errors.As(err, &fiberErr):
			resp.Code = fiberErr.Code
			resp.Error = fiberErr.Message
			resp.Kind = ""
		default:
			if includeDetails {
				resp.Details = err.Error()
			}
		}

		if resp.Code >= fiber.StatusInternalServerError {
			log.WithError(err).Error("request failed", map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"status": resp.Code,
			})
		}

		return c.Status(resp.Code).JSON(resp)
	}
}

// RequireUser rejects requests without the gateway supplied user header.
func RequireUser(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Get(UserIDHeader))
	if userID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "User ID not found")
	}

	c.Locals(userIDLocal, userID)
	return c.Next()
}

func currentUser(c *fiber.Ctx) string {
	userID, _ := c.Locals(userIDLocal).(string)
	return userID
}
