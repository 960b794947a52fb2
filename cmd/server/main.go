package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cibil-store/internal/adapter/api"
	"cibil-store/internal/adapter/auth"
	"cibil-store/internal/adapter/client"
	"cibil-store/internal/adapter/store"
	"cibil-store/internal/config"
	"cibil-store/internal/domain/repository"
	"cibil-store/internal/observability"
	"cibil-store/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	if f, ok := config.LoadDotEnv(".env.dev", ".env"); ok {
		log.Printf("loaded %s", f)
	}
	cfg := config.Load()

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run serves until ctx is done. Every error is returned so the deferred
// closes run before the process exits.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if missing := cfg.MissingPredictionSettings(); len(missing) > 0 {
		logger.Warn("prediction requests will fail until configured", zap.Strings("missing", missing))
	}

	// Generative-language client; without a key the orchestrator answers
	// every prediction with a configuration error.
	var (
		predictor repository.Predictor
		chatAI    repository.AIProvider
		embedder  repository.Embedder
		judge     repository.IntentJudge
		extractor repository.MetadataExtractor
	)
	if cfg.GeminiAPIKey != "" {
		genaiClient, err := client.NewGenAIClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("init genai client: %w", err)
		}
		primary := client.NewGeminiClientFromClient(genaiClient, cfg.GeminiModel)
		predictor = primary

		var fallback repository.AIProvider
		if cfg.GeminiFallbackModel != "" {
			fallback = client.NewGeminiClientFromClient(genaiClient, cfg.GeminiFallbackModel)
		}
		chatAI = usecase.NewResilientProvider(primary, fallback, cfg.AITimeout, logger)
		embedder = client.NewEmbedderFromClient(genaiClient, cfg.EmbeddingModel, int32(cfg.EmbeddingDim))
		judge = client.NewGeminiEvaluator(genaiClient, cfg.JudgeModel)
		extractor = client.NewGeminiExtractor(genaiClient, cfg.JudgeModel)
	} else {
		logger.Error("GEMINI_API_KEY not configured")
	}

	// Hosted Postgres
	var (
		pool        *pgxpool.Pool
		predictions repository.PredictionStore
		profiles    repository.ProfileStore
		messages    repository.ChatStore
	)
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = store.NewPostgresPool(ctx, store.PoolConfig{
			URL:             cfg.DatabaseURL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		predictions = store.NewPredictionStore(pool)
		profiles = store.NewProfileStore(pool)
		messages = store.NewChatStore(pool)
	}

	// Identity: local verification when the signing secret is known,
	// otherwise the hosted endpoint, cached in Redis when available.
	var identity repository.IdentityProvider
	switch {
	case cfg.SupabaseJWTSecret != "":
		identity = auth.NewJWTVerifier(cfg.SupabaseJWTSecret)
	case cfg.SupabaseURL != "" && cfg.SupabaseServiceRoleKey != "":
		identity = auth.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	}
	if identity != nil && cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, identity cache disabled", zap.Error(err))
		} else {
			identity = auth.NewCachedIdentity(identity, store.NewRedisIdentityCache(rdb, cfg.IdentityCacheTTL), logger)
		}
	}

	// Qdrant for the chat semantic cache
	var vectors repository.VectorStore
	if cfg.QdrantHost != "" && embedder != nil {
		qClient, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.QdrantHost,
			Port: cfg.QdrantPort,
		})
		if err != nil {
			return fmt.Errorf("connect to qdrant: %w", err)
		}
		defer qClient.Close()
		qs := store.NewQdrantStore(qClient, cfg.QdrantCollection, cfg.ChatCacheTTL, logger)
		if err := qs.InitCollection(ctx, uint64(cfg.EmbeddingDim)); err != nil {
			logger.Warn("qdrant collection unavailable, semantic cache disabled", zap.Error(err))
		} else {
			vectors = qs
		}
	}

	orchestrator := usecase.NewOrchestrator(predictor, identity, predictions, profiles, cfg.AITimeout, logger)
	orchestrator.RequireSettings(cfg.MissingPredictionSettings())
	chat := usecase.NewChatOrchestrator(vectors, chatAI, embedder, judge, extractor, messages, logger)

	handlers := api.Handlers{
		Prediction: api.NewPredictionHandler(orchestrator, api.StatusMapper{Strict: cfg.StrictErrorStatus}),
		Chat:       api.NewChatHandler(chat),
		Identity:   identity,
		Version:    cfg.AppVersion,
		Env:        cfg.Env,
	}
	if predictions != nil {
		handlers.Account = api.NewAccountHandler(predictions, profiles)
	}

	app := fiber.New(fiber.Config{
		AppName:               "AI CIBIL Store API",
		DisableStartupMessage: cfg.IsProduction(),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          cfg.AITimeout + 15*time.Second,
		IdleTimeout:           60 * time.Second,
	})
	api.SetupRouter(app, handlers)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("cibil-store API listening", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := app.Listen(cfg.Addr()); err != nil {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
