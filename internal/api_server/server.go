package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/cloudiam"
	"github.com/synthmesh/datagen-api/internal/config"
	"github.com/synthmesh/datagen-api/internal/events"
	handlers "github.com/synthmesh/datagen-api/internal/handlers/v1"
	"github.com/synthmesh/datagen-api/internal/handlers/validator"
	"github.com/synthmesh/datagen-api/internal/pipeline"
	"github.com/synthmesh/datagen-api/internal/ratelimit"
	"github.com/synthmesh/datagen-api/internal/service"
	"github.com/synthmesh/datagen-api/internal/store"
	"github.com/synthmesh/datagen-api/internal/webhook"
	"github.com/synthmesh/datagen-api/pkg/metrics"
	"github.com/synthmesh/datagen-api/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	listener net.Listener
}

// New returns a new instance of the datagen API server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	authenticator, err := auth.NewAuthenticator(s.cfg.Service.Auth)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Service.CorsOrigins,
			AllowedMethods:   []string{"GET", "PUT", "PATCH", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	// The delivery queue needs postgres; without it deliveries are dropped
	// with a warning instead of failing the whole server.
	var enqueuer webhook.Enqueuer = webhook.NewNoopEnqueuer()
	if s.cfg.Database.Type == "pgsql" {
		dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
			s.cfg.Database.Hostname,
			s.cfg.Database.User,
			s.cfg.Database.Password,
			s.cfg.Database.Port,
			s.cfg.Database.Name,
		)

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return fmt.Errorf("failed to parse pgx config: %w", err)
		}
		poolCfg.MaxConns = 20
		poolCfg.MinConns = 5
		poolCfg.MaxConnLifetime = time.Hour
		poolCfg.MaxConnIdleTime = 30 * time.Minute

		dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("failed to create pgx pool: %w", err)
		}
		defer dbPool.Close()

		webhookClient, err := webhook.NewClient(ctx, dbPool, s.store, s.cfg.Service.Webhook)
		if err != nil {
			return fmt.Errorf("failed to create webhook client: %w", err)
		}
		if err := webhookClient.Start(ctx); err != nil {
			return fmt.Errorf("failed to start webhook queue: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := webhookClient.Stop(stopCtx); err != nil {
				zap.S().Named("api_server").Warnw("failed to stop webhook queue", "error", err)
			}
		}()
		enqueuer = webhookClient

		zap.S().Named("api_server").Info("Webhook delivery queue initialized")
	} else {
		zap.S().Named("api_server").Warn("webhook delivery queue disabled, no postgres database configured")
	}

	eventProducer := events.NewEventProducer(&events.StdoutWriter{})
	defer func() {
		if err := eventProducer.Close(); err != nil {
			zap.S().Named("api_server").Warnw("failed to close event producer", "error", err)
		}
	}()

	pipelineClient := pipeline.New(s.cfg.Service.PipelineUrl)
	limiter := ratelimit.New(s.cfg.Service.RateLimit)

	v, err := validator.New()
	if err != nil {
		return fmt.Errorf("failed to build validator: %w", err)
	}

	webhookSrv := service.NewWebhookService(s.store, enqueuer)
	h := handlers.NewHandler(
		service.NewJobService(s.store, limiter, pipelineClient, eventProducer, webhookSrv),
		service.NewProjectService(s.store),
		service.NewCustomerService(s.store, cloudiam.NewStubClient()),
		webhookSrv,
		service.NewWaitlistService(s.store, eventProducer),
		service.NewAuditService(s.store),
		service.NewHealthService(s.store, pipelineClient),
		v,
	)
	router.Route("/api/v1", h.Routes(authenticator.Authenticator))

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
