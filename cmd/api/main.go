package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eventsastudio/concierge/backend/internal/config"
	"github.com/eventsastudio/concierge/backend/internal/events"
	"github.com/eventsastudio/concierge/backend/internal/handler"
	"github.com/eventsastudio/concierge/backend/internal/logging"
	"github.com/eventsastudio/concierge/backend/internal/model/persona"
	"github.com/eventsastudio/concierge/backend/internal/service/ai"
	"github.com/eventsastudio/concierge/backend/internal/service/chat"
	"github.com/eventsastudio/concierge/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, false)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	personas, err := loadPersonas(cfg.Chat.PersonaFile)
	if err != nil {
		return err
	}
	personaStore := persona.NewMemoryStore(personas)

	transcripts, err := openTranscripts(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := transcripts.Close(); err != nil {
			logger.Warn("failed to close transcript store", zap.Error(err))
		}
	}()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled() {
		natsPublisher, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject, logger)
		if err != nil {
			logger.Warn("continuing without conversation events", zap.Error(err))
		} else {
			publisher = natsPublisher
			logger.Info("publishing conversation events", zap.String("subject", cfg.Events.Subject))
		}
	}
	defer publisher.Close()

	// A nil responder keeps the API up and answers every message with the
	// localized apology.
	var responder chat.Responder
	if cfg.AI.Enabled() {
		aiService, err := newAIService(ctx, cfg, personaStore, logger)
		if err != nil {
			logger.Warn("continuing without AI functionality, check the Ark model environment variables", zap.Error(err))
		} else {
			responder = aiService
			logger.Info("AI service initialized", zap.Bool("streaming", aiService.StreamingEnabled()))
		}
	} else {
		logger.Warn("Ark credentials not configured, skipping AI initialization")
	}

	chatService := chat.NewService(responder, personaStore, transcripts, chat.Config{
		PersistTimeout: cfg.Chat.PersistTimeout,
		Publisher:      publisher,
		Logger:         logger,
	})

	router := handler.NewRouter(handler.Dependencies{
		Personas:    personaStore,
		Chat:        chatService,
		Transcripts: transcripts,
		AdminToken:  cfg.Server.AdminToken,
		Logger:      logger,
	})
	if cfg.Server.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set, admin routes are unauthenticated")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("concierge backend listening", zap.String("addr", cfg.Server.Addr))
	return runServer(ctx, srv, cfg.Server.ShutdownTimeout)
}

func loadPersonas(path string) ([]persona.Persona, error) {
	if path == "" {
		return persona.Seed(), nil
	}
	return persona.LoadFile(path, persona.Seed())
}

func openTranscripts(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (store.TranscriptStore, error) {
	backend, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open transcript store: %w", err)
	}
	if cfg.RedisURL == "" {
		return backend, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	cached, err := store.NewCachedStore(ctx, backend, client, cfg.RedisRecordTTL, logger)
	if err != nil {
		_ = client.Close()
		logger.Warn("continuing without redis record cache", zap.Error(err))
		return backend, nil
	}
	return cached, nil
}

func newAIService(ctx context.Context, cfg *config.Config, personas persona.Store, logger *zap.Logger) (*ai.Service, error) {
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	window := ai.HistoryWindow{MaxTurns: cfg.Chat.HistoryMaxTurns, MaxChars: cfg.Chat.HistoryMaxChars}
	return ai.NewService(ctx, chatModel, ai.NewPromptManager(personas, window), ai.Options{
		Streaming: cfg.AI.StreamResponse,
		Logger:    logger,
	})
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
