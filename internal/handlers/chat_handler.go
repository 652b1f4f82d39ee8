package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/career-hub/internal/apperrors"
	"alfredoptarigan/career-hub/internal/models"
)

type ChatResponder interface {
	Chat(ctx context.Context, history []models.ChatMessage) (string, error)
}

type ChatHandler struct {
	responder ChatResponder
}

func NewChatHandler(responder ChatResponder) *ChatHandler {
	return &ChatHandler{
		responder: responder,
	}
}

// HandleChat handles POST /chat
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req models.ChatRequest

	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request payload")
	}

	if len(req.History) == 0 {
		return apperrors.NewValidationError("history is required")
	}

	for _, msg := range req.History {
		if strings.TrimSpace(msg.Role) == "" || strings.TrimSpace(msg.Content) == "" {
			return apperrors.NewValidationError("every history message needs a role and content")
		}
	}

	reply, err := h.responder.Chat(c.UserContext(), req.History)
	if err != nil {
		return err
	}

	return c.JSON(models.ChatResponse{Response: reply})
}
