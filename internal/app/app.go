package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hatchai/hatch-backend/internal/config"
	"github.com/hatchai/hatch-backend/internal/core"
	db "github.com/hatchai/hatch-backend/internal/core/database"
	"github.com/hatchai/hatch-backend/internal/core/enrichment"
	"github.com/hatchai/hatch-backend/internal/core/llm"
	"github.com/hatchai/hatch-backend/internal/logger"
	"github.com/hatchai/hatch-backend/internal/services"
)

type App struct {
	DBClient core.DbClient
	Log      *logger.Logger
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready")

	llmProvider, err := newLLMProvider(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm provider: %w", err)
	}
	log.Info("llm provider initialized", "provider", cfg.LLMProvider, "model", cfg.ChatModel)

	notifier := enrichment.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout, log)
	poller := enrichment.NewPoller(dbClient, cfg.PollInterval, cfg.PollMaxAttempts, log)

	personaSvc := services.NewPersonaService(dbClient, llmProvider, notifier, poller, log, cfg.ChatModel, cfg.CleanupOnFailure)
	chatSvc := services.NewChatService(dbClient, llmProvider, log)
	panelsSvc := services.NewPanelsService(dbClient, llmProvider, log)

	server := NewServer(cfg, log, dbClient, personaSvc, chatSvc, panelsSvc)

	return &App{DBClient: dbClient, Log: log, Server: server}, nil
}

func newLLMProvider(ctx context.Context, cfg *config.Config) (core.LLMProvider, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return llm.NewGeminiLLM(ctx, cfg.LLMAPIKey, cfg.ChatModel)
	case "openai", "":
		return llm.NewOpenAILLM(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.ChatModel)
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
