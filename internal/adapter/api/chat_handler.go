package api

import (
	"cibil-store/internal/domain/entity"
	"cibil-store/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	orchestrator *usecase.ChatOrchestrator
	errors       StatusMapper
}

func NewChatHandler(orch *usecase.ChatOrchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orch, errors: StatusMapper{Strict: true}}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req entity.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.UserID = CurrentUser(c).UserID

	resp, err := h.orchestrator.Execute(c.UserContext(), req)
	if err != nil {
		return h.errors.Fail(c, err)
	}

	c.Set("X-Cache-Hit", "false")
	if resp.Cached {
		c.Set("X-Cache-Hit", "true")
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
