package usecase

import (
	"context"
	"strings"
	"time"

	"cibil-store/internal/domain/entity"
	"cibil-store/internal/domain/repository"

	"go.uber.org/zap"
)

// Orchestrator runs one score prediction end to end: prompt, upstream
// call, parse, authenticate, persist, refresh the profile score.
type Orchestrator struct {
	predictor   repository.Predictor
	identity    repository.IdentityProvider
	predictions repository.PredictionStore
	profiles    repository.ProfileStore
	timeout     time.Duration
	log         *zap.Logger

	// required settings absent at startup, e.g. SUPABASE_URL
	missing []string
}

// NewOrchestrator accepts nil collaborators; a request that needs a missing
// one fails with a configuration error.
func NewOrchestrator(p repository.Predictor, id repository.IdentityProvider, ps repository.PredictionStore, prof repository.ProfileStore, timeout time.Duration, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{predictor: p, identity: id, predictions: ps, profiles: prof, timeout: timeout, log: log}
}

// RequireSettings records required settings that are absent. Every
// invocation then fails with a configuration error at the data-store step,
// even when the collaborators themselves could be built without them.
func (u *Orchestrator) RequireSettings(missing []string) {
	u.missing = missing
}

func (u *Orchestrator) Execute(ctx context.Context, req entity.PredictionRequest, authHeader string) (*entity.Prediction, error) {
	u.log.Info("cibil prediction request",
		zap.Stringer("income", req.Income),
		zap.Stringer("existing_loans", req.ExistingLoans),
		zap.Stringer("payment_history", req.PaymentHistory),
		zap.Stringer("credit_utilization", req.CreditUtilization),
		zap.Stringer("recent_inquiries", req.RecentInquiries))

	// 1. Secret check
	if u.predictor == nil {
		u.log.Error("GEMINI_API_KEY not configured")
		return nil, entity.ErrAIKeyMissing
	}

	// 2. Upstream call
	text, err := u.complete(ctx, BuildPredictionPrompt(req))
	if err != nil {
		return nil, err
	}

	// 3. Parse
	prediction, err := ParsePrediction(text)
	if err != nil {
		u.log.Error("could not parse prediction", zap.Error(err))
		return nil, err
	}
	u.log.Info("parsed prediction", zap.Int("predicted_score", prediction.PredictedScore))

	// 4. Authenticate
	token, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}
	if u.identity == nil || u.predictions == nil || u.profiles == nil || len(u.missing) > 0 {
		u.log.Error("data store not configured", zap.Strings("missing", u.missing))
		return nil, entity.ErrDataStoreNotConfigured
	}
	user, err := u.identity.ResolveUser(ctx, token)
	if err != nil {
		u.log.Warn("user authentication failed", zap.Error(err))
		return nil, entity.ErrUnauthorized
	}

	// 5. Persist
	input, err := req.Coerce()
	if err != nil {
		return nil, err
	}
	rec := &entity.PredictionRecord{
		UserID:          user.UserID,
		PredictionInput: input,
		PredictedScore:  prediction.PredictedScore,
		Factors:         prediction.Factors,
		Suggestions:     prediction.Suggestions,
	}
	if err := u.predictions.Insert(ctx, rec); err != nil {
		u.log.Error("database insert error", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, entity.ErrSavePrediction
	}

	// 6. Best-effort profile cache; failure is logged, never surfaced.
	if err := u.profiles.UpdateCurrentScore(ctx, user.UserID, prediction.PredictedScore); err != nil {
		u.log.Warn("current score update failed", zap.String("user_id", user.UserID), zap.Error(err))
	}

	u.log.Info("prediction saved", zap.String("prediction_id", rec.ID), zap.String("user_id", user.UserID))
	return prediction, nil
}

func (u *Orchestrator) complete(ctx context.Context, prompt string) (string, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	u.log.Debug("calling gemini")
	text, err := u.predictor.Complete(ctx, prompt, PredictionParams)
	if err != nil {
		u.log.Error("gemini call failed", zap.Error(err))
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		u.log.Error("no text generated from gemini")
		return "", entity.ErrNoPrediction
	}
	return text, nil
}

// BearerToken extracts the credential from an Authorization header value.
// A value without the Bearer scheme is taken as the token itself.
func BearerToken(header string) (string, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return "", entity.ErrMissingAuthorization
	}
	if !strings.EqualFold(fields[0], "Bearer") {
		return fields[0], nil
	}
	if len(fields) != 2 {
		return "", entity.ErrUnauthorized
	}
	return fields[1], nil
}
