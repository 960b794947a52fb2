package api

import (
	"cibil-store/internal/domain/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const allowedHeaders = "authorization, x-client-info, apikey, content-type"

type Handlers struct {
	Prediction *PredictionHandler
	Account    *AccountHandler // optional
	Chat       *ChatHandler    // optional
	Identity   repository.IdentityProvider
	Version    string
	Env        string
}

func SetupRouter(app *fiber.App, h Handlers) {
	// Preflight is answered here, before any route or auth runs.
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		AllowHeaders: allowedHeaders,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	// Non-CORS OPTIONS requests fall through the middleware; answer them too.
	app.Options("/*", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowHeaders, allowedHeaders)
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"version": h.Version,
			"env":     h.Env,
		})
	})

	app.Post("/predict-cibil", h.Prediction.HandlePredict)

	v1 := app.Group("/v1", RequireAuth(h.Identity))
	if h.Account != nil {
		v1.Get("/predictions", h.Account.ListPredictions)
		v1.Get("/profile", h.Account.GetProfile)
		v1.Patch("/profile", h.Account.UpdateProfile)
	}
	if h.Chat != nil {
		v1.Post("/chat", h.Chat.HandleChat)
	}
}
