package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"
	"cibil-store/internal/usecase"

	"github.com/gofiber/fiber/v2"
)

type PredictionHandler struct {
	orchestrator *usecase.Orchestrator
	errors       StatusMapper
}

func NewPredictionHandler(orch *usecase.Orchestrator, errs StatusMapper) *PredictionHandler {
	return &PredictionHandler{orchestrator: orch, errors: errs}
}

// HandlePredict serves POST /predict-cibil.
func (h *PredictionHandler) HandlePredict(c *fiber.Ctx) error {
	var req entity.PredictionRequest
	// The body is read as JSON whatever the declared content type.
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return h.errors.Fail(c, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err))
	}

	prediction, err := h.orchestrator.Execute(c.UserContext(), req, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return h.errors.Fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(prediction)
}

// AccountHandler serves the caller's own history and profile.
type AccountHandler struct {
	predictions repository.PredictionStore
	profiles    repository.ProfileStore
	errors      StatusMapper
}

func NewAccountHandler(ps repository.PredictionStore, prof repository.ProfileStore) *AccountHandler {
	// Authenticated routes always use distinct statuses.
	return &AccountHandler{predictions: ps, profiles: prof, errors: StatusMapper{Strict: true}}
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func (h *AccountHandler) ListPredictions(c *fiber.Ctx) error {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return h.errors.Fail(c, entity.ErrInvalidInput)
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.predictions.ListByUser(c.UserContext(), CurrentUser(c).UserID, limit)
	if err != nil {
		return h.errors.Fail(c, err)
	}
	if records == nil {
		records = []entity.PredictionRecord{}
	}
	return c.JSON(fiber.Map{"predictions": records})
}

func (h *AccountHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.profiles.Get(c.UserContext(), CurrentUser(c).UserID)
	if err != nil {
		return h.errors.Fail(c, err)
	}
	return c.JSON(profile)
}

func (h *AccountHandler) UpdateProfile(c *fiber.Ctx) error {
	var upd entity.ProfileUpdate
	if err := c.BodyParser(&upd); err != nil || upd.Empty() {
		return h.errors.Fail(c, entity.ErrInvalidInput)
	}
	profile, err := h.profiles.Update(c.UserContext(), CurrentUser(c).UserID, upd)
	if err != nil {
		return h.errors.Fail(c, err)
	}
	return c.JSON(profile)
}
