package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/verticelabs/authcore/internal/auth/http"
	"github.com/verticelabs/authcore/internal/auth/metrics"
	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/internal/auth/settings"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/internal/auth/store/drivers/postgres"
	"github.com/verticelabs/authcore/internal/auth/store/drivers/sqlite"
	"github.com/verticelabs/authcore/pkg/jwtx"
	"github.com/verticelabs/authcore/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier
	metrics  *metrics.Metrics

	flags         *settings.Flags
	settingsStore settings.Store
	redis         *settings.RedisSource // nil without REDIS_URL
	stopSettings  context.CancelFunc

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	tenantService       *service.TenantService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "authcore",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg),
		metrics: metrics.New(),
	}
	ctx := context.Background()

	if err := LoadPepper(cfg); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	sender, err := NewCodeSender(cfg, app.logger)
	if err != nil {
		return nil, err
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initSettings(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices(sender)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	settingsCtx, cancel := context.WithCancel(context.Background())
	app.stopSettings = cancel
	if app.redis != nil {
		go app.redis.Run(settingsCtx)
	}

	app.logger.Info("auth service starting", "addr", app.cfg.HTTPAddr, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if app.stopSettings != nil {
		app.stopSettings()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// OpenStore connects to the configured database driver and applies
// migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("AUTH_DATABASE_URL is required for the postgres driver")
		}
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	case "sqlite", "":
		db, err = sqlite.NewStore(fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.DatabaseFile))
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initKeys() error {
	key, err := LoadSigningKey(app.cfg, app.logger)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}

	signer, err := jwtx.NewSignerHS256(key)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}
	verifier, err := jwtx.NewVerifierHS256(key, app.cfg.Issuer)
	if err != nil {
		return fmt.Errorf("failed to create verifier: %w", err)
	}

	app.signer = signer
	app.verifier = verifier
	return nil
}

// initSettings sets up the force-2FA switch. With REDIS_URL the value in
// Redis wins over AUTH_FORCE_2FA once it has been set.
func (app *Application) initSettings(ctx context.Context) error {
	app.flags = settings.NewFlags(app.cfg.ForceTwoFactor)

	if app.cfg.RedisURL == "" {
		app.settingsStore = settings.LocalStore{Flags: app.flags}
		return nil
	}

	src, err := settings.NewRedisSource(app.cfg.RedisURL, app.flags, app.cfg.SettingsPollInterval, app.logger)
	if err != nil {
		return fmt.Errorf("failed to configure redis settings: %w", err)
	}
	if err := src.Poll(ctx); err != nil {
		app.logger.Warn("initial settings poll failed, using local value", "error", err)
	}

	app.redis = src
	app.settingsStore = src
	app.logger.Info("force 2fa shared through redis", "interval", src.Interval)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices(sender service.CodeSender) {
	tenants := service.NewTenantCache(app.db, app.cfg.TenantCacheTTL)

	app.authService = &service.AuthService{
		Store:       app.db,
		Credentials: &service.CredentialVerifier{Store: app.db},
		Gate:        &service.AccountGate{Tenants: tenants},
		TwoFactor: &service.TwoFactorGate{
			Store:    app.db,
			Settings: app.flags,
			Sender:   sender,
			CodeTTL:  app.cfg.TwoFactorCodeTTL,
		},
		Tokens: &service.AccessTokenIssuer{
			Signer:   app.signer,
			Verifier: app.verifier,
			Issuer:   app.cfg.Issuer,
			TTL:      app.cfg.AccessTokenTTL,
		},
		Sessions: &service.SessionManager{Store: app.db, TTL: app.cfg.RefreshTokenTTL},
		Metrics:  app.metrics,
	}

	app.userService = &service.UserService{Store: app.db}
	app.tenantService = &service.TenantService{Store: app.db, Cache: tenants}
	app.bootstrapService = &service.BootstrapService{
		Users: app.userService,
		Token: app.cfg.BootstrapToken,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.verifier, BuildVersion, app.metrics, app.logger)

	// Wire services to router
	router.AuthService = app.authService
	router.UserService = app.userService
	router.TenantService = app.tenantService
	router.BootstrapService = app.bootstrapService
	router.Flags = app.flags
	router.SettingsStore = app.settingsStore
	router.ReadinessChecks = map[string]httpapi.ReadinessCheck{"database": app.db.Ping}
	if app.redis != nil {
		router.ReadinessChecks["settings"] = app.redis.Ping
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
