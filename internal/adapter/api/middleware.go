package api

import (
	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"
	"cibil-store/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth resolves the bearer token and stores the caller in Locals.
func RequireAuth(identity repository.IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := usecase.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		if identity == nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": entity.ErrDataStoreNotConfigured.Error()})
		}
		user, err := identity.ResolveUser(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": entity.ErrUnauthorized.Error()})
		}
		c.Locals(userLocal, user)
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) *entity.Identity {
	user, _ := c.Locals(userLocal).(*entity.Identity)
	if user == nil {
		return &entity.Identity{}
	}
	return user
}
