package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/narrative-service/internal/clients/discord"
	"github.com/KirkDiggler/narrative-service/internal/clients/dnd5e"
	"github.com/KirkDiggler/narrative-service/internal/clients/llm"
	"github.com/KirkDiggler/narrative-service/internal/clients/spacetime"
	"github.com/KirkDiggler/narrative-service/internal/config"
	"github.com/KirkDiggler/narrative-service/internal/handlers/httpapi"
	"github.com/KirkDiggler/narrative-service/internal/repositories/wizard_sessions"
	"github.com/KirkDiggler/narrative-service/internal/services/auth"
	"github.com/KirkDiggler/narrative-service/internal/services/interpret"
	"github.com/KirkDiggler/narrative-service/internal/services/wizard"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info("no .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, redisClient := newRepository(ctx, cfg, logger)
	if redisClient != nil {
		defer func() {
			if closeErr := redisClient.Close(); closeErr != nil {
				logger.Warn("error closing redis connection", zap.Error(closeErr))
			}
		}()
	}

	backend, err := spacetime.New(&spacetime.Config{
		BaseURL: cfg.Spacetime.BackendURL(),
		Module:  cfg.Spacetime.Module,
	})
	if err != nil {
		logger.Fatal("failed to create backend client", zap.Error(err))
	}

	llmClient := llm.NewOpenAI(&llm.OpenAIConfig{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: cfg.OpenAI.Timeout,
	})
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, wizard steps will fail and /interpret will classify by keyword")
	}

	var lore dnd5e.Client
	if cfg.DND5E.Enabled {
		lore, err = dnd5e.New(&dnd5e.Config{
			HttpClient: &http.Client{Timeout: 30 * time.Second},
		})
		if err != nil {
			logger.Fatal("failed to create D&D 5e client", zap.Error(err))
		}
	}

	announcer, err := discord.NewAnnouncer(&discord.WebhookConfig{
		WebhookID:    cfg.Discord.WebhookID,
		WebhookToken: cfg.Discord.WebhookToken,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("failed to create discord announcer", zap.Error(err))
	}

	generator, err := wizard.NewGenerator(&wizard.GeneratorConfig{
		Client: llmClient,
		Lore:   lore,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create step generator", zap.Error(err))
	}

	handler := httpapi.NewHandler(&httpapi.Config{
		Wizard: wizard.NewService(&wizard.ServiceConfig{
			Repository: repo,
			Generator:  generator,
			Backend:    backend,
			Announcer:  announcer,
			Logger:     logger,
		}),
		Interpret: interpret.NewService(&interpret.ServiceConfig{
			Client:  llmClient,
			Backend: backend,
			Logger:  logger,
		}),
		Auth: auth.NewService(&auth.ServiceConfig{
			Backend: backend,
			Tokens: auth.NewSessionTokens(&auth.SessionTokensConfig{
				Secret: cfg.Session.Secret,
				TTL:    cfg.Session.TokenTTL,
			}),
			ClientID: cfg.Google.ClientID,
			Logger:   logger,
		}),
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins(),
		RateLimit: &httpapi.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
	})

	server := httpapi.NewServer(cfg.Server.Port, handler, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}

func newLogger(cfg config.ServerConfig) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newRepository uses Redis when REDIS_URL is set and reachable, else memory
func newRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (wizard_sessions.Repository, *redis.Client) {
	inMemory := func() wizard_sessions.Repository {
		return wizard_sessions.NewInMemoryRepository(&wizard_sessions.InMemoryConfig{TTL: cfg.Session.WizardTTL})
	}

	if cfg.Redis.URL == "" {
		logger.Info("no REDIS_URL found, using in-memory wizard sessions")
		return inMemory(), nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Warn("failed to parse REDIS_URL, falling back to in-memory wizard sessions", zap.Error(err))
		return inMemory(), nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("failed to connect to redis, falling back to in-memory wizard sessions", zap.Error(err))
		_ = client.Close()
		return inMemory(), nil
	}

	logger.Info("using redis for wizard sessions", zap.String("addr", opts.Addr))
	return wizard_sessions.NewRedis(client, cfg.Session.WizardTTL), client
}
