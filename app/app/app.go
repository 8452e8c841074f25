package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/marketconnect/helpdesk-proxy/app/domain/entities"
	"github.com/marketconnect/helpdesk-proxy/app/internal/config"
	"github.com/marketconnect/helpdesk-proxy/app/internal/handlers"
	"github.com/marketconnect/helpdesk-proxy/app/internal/logging"
	"github.com/marketconnect/helpdesk-proxy/app/internal/metrics"
	"github.com/marketconnect/helpdesk-proxy/app/internal/repository"
	"github.com/marketconnect/helpdesk-proxy/app/internal/session"
	"github.com/marketconnect/helpdesk-proxy/app/internal/ticket"
	"github.com/marketconnect/helpdesk-proxy/app/internal/upstream"
)

// App holds all application dependencies
type App struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Repository     repository.Repository
	SessionManager *session.SessionManager
	Metrics        *metrics.Metrics
	Upstream       *upstream.Client

	handler http.Handler
}

// NewRepository opens and initializes the session backend named by
// cfg.Repository.Type.
func NewRepository(cfg *config.Config) (repository.Repository, error) {
	var repo repository.Repository
	switch cfg.Repository.Type {
	case "sqlite":
		sqliteRepo, err := repository.NewSQLiteRepository(cfg.Repository.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		repo = sqliteRepo
	case "memory", "":
		repo = repository.NewMemoryRepository(cfg.Session.TTL)
	default:
		return nil, fmt.Errorf("unknown repository type %q", cfg.Repository.Type)
	}

	if err := repo.Init(); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	return repo, nil
}

// NewApp creates and initializes all application dependencies
func NewApp(cfg *config.Config) (*App, error) {
	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	logger.Info().Str("type", cfg.Repository.Type).Msg("initializing session repository")
	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err
	}

	sessionManager := session.NewSessionManager(repo, cfg.Session.TTL)
	m := metrics.New(sessionManager.Count)
	client := upstream.NewClient(cfg.Upstream.Timeout,
		upstream.WithRateLimit(cfg.Upstream.RateLimitPerMin),
		upstream.WithMetrics(m),
	)

	h := handlers.NewHandler(sessionManager, client, ticket.NewPoster(client, m), handlers.Options{
		LoginDefaults: entities.Credential{
			Email:     cfg.Zendesk.Email,
			APIToken:  cfg.Zendesk.Token,
			Subdomain: cfg.Zendesk.Subdomain,
		},
		SecureCookies:  cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins(),
		MaxUploadBytes: cfg.Upstream.MaxUploadBytes,
		Metrics:        m,
	})

	return &App{
		Config:         cfg,
		Logger:         logger,
		Repository:     repo,
		SessionManager: sessionManager,
		Metrics:        m,
		Upstream:       client,
		handler:        logging.Middleware(logger)(h.Router()),
	}, nil
}

// Handler is the fully wrapped HTTP handler served by Run.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Close cleans up all dependencies
func (a *App) Close() error {
	if a.SessionManager != nil {
		if err := a.SessionManager.Close(); err != nil {
			return fmt.Errorf("failed to close session manager: %w", err)
		}
	}
	return nil
}

// Run serves on cfg.HTTP.Port until ctx is cancelled, then shuts the server
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(a.Config.HTTP.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	cfg := a.Config.HTTP
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          logging.StdLogger(a.Logger),
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.SessionManager.RunSweeper(sweepCtx, a.Config.Session.SweepInterval)
	}()
	defer func() {
		stopSweeper()
		wg.Wait()
	}()

	errc := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", ln.Addr().String()).Msg("starting server")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
