package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"nexusprep/internal/config"
	"nexusprep/internal/dataprocessing"
	apierrors "nexusprep/internal/errors"
	"nexusprep/internal/infrastructure"
	"nexusprep/internal/learning"
	customMiddleware "nexusprep/internal/middleware"
	"nexusprep/internal/operations"
	"nexusprep/internal/services"
	handlers "nexusprep/internal/transport/http"
	ws "nexusprep/internal/websocket"
	"nexusprep/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders

	Store        learning.Store
	Sink         *learning.Sink
	Manager      *operations.Manager
	Validation   *services.ValidationService
	Health       *services.HealthService
	WebSocketHub *ws.Hub
	ErrorHandler *apierrors.ErrorHandler

	Router *chi.Mux
	Server *http.Server
}

// NewApplication builds every service from cfg. The caller owns logger.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(ctx); err != nil {
		a.shutdownOTel(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	logger.InfoContext(ctx, "application_initialized",
		slog.String("version", contracts.Version),
		slog.String("learning_driver", cfg.Learning.Driver),
		slog.Int("stages", a.Manager.GetRegistry().Count()))
	return a, nil
}

// OpenStore opens the firm taxonomy store selected by cfg.
func OpenStore(ctx context.Context, cfg config.LearningConfig) (learning.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return learning.NewMemoryStore(), nil
	case "sqlite":
		store, err := learning.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported learning driver: %s", cfg.Driver)
	}
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	store, err := OpenStore(ctx, a.Config.Learning)
	if err != nil {
		return fmt.Errorf("failed to open learning store: %w", err)
	}
	a.Store = store
	a.Sink = learning.NewSink(store, a.Config.Validation.LearningThreshold, a.Logger)

	a.Manager = operations.NewManager(operations.ConfigFrom(a.Config), a.Sink, a.Logger)
	tracer, err := operations.NewPipelineTracer(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline tracer: %w", err)
	}
	a.Manager.SetTracer(tracer)

	a.WebSocketHub = ws.NewHub(a.Logger)
	a.WebSocketHub.Start()
	a.Manager.SetProgressReporter(a.WebSocketHub)

	a.Validation, err = services.NewValidationService(a.Manager, a.Sink, services.Options{
		CacheSize:      a.Config.Server.ResultCacheSize,
		HeaderScanRows: a.Config.Validation.HeaderScanRows,
		MaxFileBytes:   a.Config.Validation.MaxFileBytes,
	}, a.Logger)
	if err != nil {
		return err
	}

	if a.Config.Sheets.CredentialsFile != "" || a.Config.Sheets.APIKey != "" {
		reader, err := dataprocessing.NewSheetsReader(ctx, a.Config.Sheets, a.Config.Validation.HeaderScanRows, a.Logger)
		if err != nil {
			// Uploads still work without Sheets
			a.Logger.WarnContext(ctx, "sheets_reader_unavailable", slog.String("error", err.Error()))
		} else {
			a.Validation.SetSheetsSource(reader)
		}
	}

	a.Health = services.NewHealthService(contracts.Version, a.Manager, a.Store, a.WebSocketHub, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware that does not wrap the ResponseWriter, safe for the websocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Handle("/ws", ws.Handler(a.WebSocketHub, a.Config.WebSocket, a.allowedOrigins(), a.Logger))
	r.Handle("/metrics", handlers.MetricsHandler(a.OTelProviders.PrometheusHTTP))

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/healthz", healthHandler.LivenessCheck)
	r.Get("/readyz", healthHandler.ReadinessCheck)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Logger)
		if err != nil {
			a.Logger.Error("otel_middleware_unavailable", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(a.ErrorHandler.Recoverer)
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.allowedOrigins(),
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				MaxAge:         300,
			}))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler, a.Logger).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validationHandler := handlers.NewValidationHandler(
		a.Validation,
		customMiddleware.NewValidator(a.Logger),
		a.ErrorHandler,
		a.Config.Server.MaxUploadBytes,
		a.Logger,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/validations", validationHandler.Routes())
		r.Get("/firms/{firmID}/taxonomy", validationHandler.GetFirmTaxonomy)
		r.Get("/firms/{firmID}/taxonomy/{header}", validationHandler.GetFirmMapping)
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, contracts.GetVersionInfo())
		})
	})
}

func (a *Application) allowedOrigins() []string {
	if !a.Config.Security.EnableCORS {
		return nil
	}
	return a.Config.Security.AllowedOrigins
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.Logger.InfoContext(ctx, "server_starting",
		slog.String("address", ln.Addr().String()),
		slog.String("version", contracts.Version))

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "shutdown_signal_received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.Logger.ErrorContext(ctx, "server_error", slog.String("error", err.Error()))
			_ = a.Stop(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	}
	return a.Stop(context.Background())
}

// Run listens on the configured port until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "application_stopped")
	return errors.Join(errs...)
}

// Close releases the hub, the learning store and telemetry without touching the server.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close learning store: %w", err))
		}
	}
	a.shutdownOTel(ctx)
	return errors.Join(errs...)
}

func (a *Application) shutdownOTel(ctx context.Context) {
	if a.OTelProviders == nil {
		return
	}
	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		a.Logger.ErrorContext(ctx, "otel_shutdown_failed", slog.String("error", err.Error()))
	}
}
