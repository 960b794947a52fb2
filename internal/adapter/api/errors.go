package api

import (
	"cibil-store/internal/domain/entity"

	"github.com/gofiber/fiber/v2"
)

// StatusMapper turns a domain error into an HTTP status. The default
// answers 500 for every failure; strict mode separates the kinds.
type StatusMapper struct {
	Strict bool
}

func (m StatusMapper) Status(err error) int {
	if !m.Strict {
		return fiber.StatusInternalServerError
	}
	switch entity.KindOf(err) {
	case entity.KindInput:
		return fiber.StatusBadRequest
	case entity.KindAuth:
		return fiber.StatusUnauthorized
	case entity.KindUpstream, entity.KindMalformed:
		return fiber.StatusBadGateway
	case entity.KindNotFound:
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

func (m StatusMapper) Fail(c *fiber.Ctx, err error) error {
	return c.Status(m.Status(err)).JSON(fiber.Map{"error": err.Error()})
}
