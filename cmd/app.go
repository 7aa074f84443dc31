package main

import (
	"context"
	"fmt"
	"time"

	"mia-admin/config"
	"mia-admin/internal/handlers"
	"mia-admin/internal/repositories"
	"mia-admin/internal/services"
	"mia-admin/internal/utils"
	"mia-admin/internal/wsnotify"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// app holds the process-wide collaborators built once at startup.
type app struct {
	cfg      *config.Config
	client   *mongo.Client
	location *time.Location

	attendance *services.AttendanceService
	knowledge  *services.KnowledgeService
	quotes     *services.QuoteService
	training   *services.TrainingService
	router     *services.Router
	store      services.ObjectStore
	notifier   *wsnotify.Manager
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	utils.SetupLogger(cfg.Server.LogLevel)
	for _, warning := range cfg.Warnings() {
		utils.LogWarning("%s", warning)
	}

	client, db, err := config.ConnectDatabase(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}

	conversations := repositories.NewMongoConversationRepository(db)
	webhooks := repositories.NewMongoWebhookRepository(db)
	for _, ensure := range []func(context.Context) error{conversations.EnsureIndexes, webhooks.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			client.Disconnect(context.Background())
			return nil, fmt.Errorf("erro ao criar índices: %w", err)
		}
	}
	suggestions := repositories.NewMongoSuggestionRepository(db)
	bots := repositories.NewMongoBotRepository(db)
	quotes := repositories.NewMongoQuoteRepository(db)

	gateway := services.NewZAPIGateway(cfg.Gateway)
	notifier := wsnotify.NewManager()
	location := utils.LoadLocation(cfg.Server.Timezone)

	a := &app{
		cfg:        cfg,
		client:     client,
		location:   location,
		notifier:   notifier,
		attendance: services.NewAttendanceService(conversations, gateway, notifier, cfg.Server.AttendantPhone),
		knowledge:  services.NewKnowledgeService(suggestions, bots, cfg.Server.BotName),
		quotes:     services.NewQuoteService(quotes, location),
	}
	a.training = services.NewTrainingService(bots, a.attendance, cfg.Server.BotName)
	a.router = services.NewRouter(a.attendance, a.knowledge, bots, webhooks,
		services.NewOpenAIResponder(cfg.OpenAI), gateway, cfg.Server.BotName)

	if cfg.S3Config.Configured() {
		s3Service, err := services.NewS3Service(cfg.S3Config)
		if err != nil {
			utils.LogError("Erro ao criar serviço S3: %v", err)
		} else {
			a.store = s3Service
		}
	}
	return a, nil
}

func (a *app) handlers() handlers.Handlers {
	pages := handlers.NewPages(a.location)
	return handlers.Handlers{
		Atendimento: handlers.NewAtendimentoHandler(a.attendance, a.store, pages),
		Conversas:   handlers.NewConversasHandler(a.attendance, pages),
		Aprendizado: handlers.NewAprendizadoHandler(a.knowledge, pages),
		Orcamentos:  handlers.NewOrcamentosHandler(a.quotes, pages),
		Treinamento: handlers.NewTreinamentoHandler(a.training, pages),
		Webhook:     handlers.NewWebhookHandler(a.router),
		WebSocket:   handlers.NewWebSocketHandler(a.notifier),
	}
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		utils.LogError("Erro ao desconectar do MongoDB: %v", err)
	}
	utils.SyncLogger()
}
