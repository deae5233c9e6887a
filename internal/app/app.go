package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/grading-assistant/internal/command"
	"github.com/RubachokBoss/grading-assistant/internal/config"
	"github.com/RubachokBoss/grading-assistant/internal/database"
	"github.com/RubachokBoss/grading-assistant/internal/delivery/httpd"
	"github.com/RubachokBoss/grading-assistant/internal/middleware"
	"github.com/RubachokBoss/grading-assistant/internal/repository"
	"github.com/RubachokBoss/grading-assistant/internal/service"
	"github.com/RubachokBoss/grading-assistant/internal/service/integration"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type App struct {
	server     *http.Server
	logger     zerolog.Logger
	config     *config.Config
	db         *sql.DB
	publisher  integration.EventPublisher
	dispatcher command.Dispatcher
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		logger: log,
		config: cfg,
	}

	store, err := a.newDocumentStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	ledger, err := repository.NewLedgerRepository(ctx, store, log)
	if err != nil {
		a.close()
		return nil, err
	}

	github := integration.NewGitHubClient(cfg.GitHub, log)

	var deadlineSource integration.DeadlineSource = github
	if cfg.Deadlines.Source == "file" {
		deadlineSource = integration.NewFileDeadlineSource(cfg.Deadlines.Path)
	}

	a.publisher = integration.NewNopPublisher()
	if cfg.RabbitMQ.Enabled {
		publisher, err := integration.NewRabbitMQPublisher(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.RoutingKey,
			cfg.RabbitMQ.QueueName,
			log,
		)
		if err != nil {
			// grading works without events
			log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
		} else {
			a.publisher = publisher
		}
	}

	gradingService := service.NewGradingService(ledger, github, a.publisher, cfg.Grading.MaxGraders, log)
	deadlineService := service.NewDeadlineService(deadlineSource, log)

	a.dispatcher = command.NewDispatcher(gradingService, deadlineService, command.Options{
		Organization:   cfg.GitHub.Organization,
		DefaultGraders: cfg.Grading.DefaultGraders,
		MaxGraders:     cfg.Grading.MaxGraders,
		MaxMessageSize: cfg.Chat.MaxMessageSize,
	}, log)

	handler := httpd.NewHandler(
		gradingService,
		deadlineService,
		a.dispatcher,
		command.NewTokenAuthorizer(cfg.Chat.AdminTokens, cfg.Chat.MemberTokens),
		cfg.Grading.DefaultGraders,
		log,
	)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(middleware.NewCORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
		cfg.CORS.ExposedHeaders,
		cfg.CORS.AllowCredentials,
		cfg.CORS.MaxAge,
	))

	handler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *App) newDocumentStore(ctx context.Context) (repository.DocumentStore, error) {
	cfg := a.config

	switch cfg.Ledger.Backend {
	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		pg := repository.NewPostgresDocumentStore(db, cfg.Ledger.Document, a.logger)
		if err := pg.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		a.logger.Info().Msg("Database connection established")
		return pg, nil

	case "minio":
		store, err := repository.NewMinIODocumentStore(
			cfg.MinIO.Endpoint,
			cfg.MinIO.AccessKey,
			cfg.MinIO.SecretKey,
			cfg.MinIO.Bucket,
			cfg.MinIO.Region,
			cfg.Ledger.Object,
			cfg.MinIO.UseSSL,
			a.logger,
		)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return repository.NewFileDocumentStore(cfg.Ledger.Path), nil
	}
}

// Dispatcher exposes the command table for local execution.
func (a *App) Dispatcher() command.Dispatcher {
	return a.dispatcher
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting grading assistant on %s", a.config.Server.Address)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down grading assistant...")

	err := a.server.Shutdown(ctx)
	a.close()
	return err
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}
}
