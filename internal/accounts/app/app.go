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

	httpapi "github.com/aussiebroadwan/accounts/internal/accounts/http"
	"github.com/aussiebroadwan/accounts/internal/accounts/identity/local"
	"github.com/aussiebroadwan/accounts/internal/accounts/notify"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/postgres"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"github.com/aussiebroadwan/accounts/pkg/telemetry"
	"github.com/redis/go-redis/v9"
)

const (
	ServiceName = "accounts-service"

	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// pingFunc adapts a function to httpapi.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Application owns every long lived dependency of the accounts service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store      store.ProfileStore
	idp        *local.Provider
	redis      *redis.Client
	dispatcher notify.Dispatcher
	cipher     *cryptox.SecretCipher

	registrationService *service.RegistrationService
	recoveryService     *service.RecoveryService
	tfaService          *service.TFAService
	loginService        *service.LoginService
	profileService      *service.ProfileService
	reconciler          *service.OrphanReconciler

	shutdownTracing func(context.Context) error

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// On error everything opened so far is closed again.
func New(ctx context.Context, cfg Config) (_ *Application, err error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: ServiceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}
	defer func() {
		if err != nil {
			app.closeResources()
		}
	}()

	app.shutdownTracing, err = telemetry.Setup(ctx, ServiceName, BuildVersion, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initIdentityProvider(); err != nil {
		return nil, err
	}
	if err := app.initNotifications(); err != nil {
		return nil, err
	}
	if err := app.initCipher(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.reconciler.Start()

	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.reconciler.Stop()
		app.closeResources()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.reconciler.Stop()

	if err := app.shutdownTracing(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	app.closeResources()
	app.logger.Info("accounts service stopped")
	return nil
}

func (app *Application) closeResources() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
	if app.idp != nil {
		if err := app.idp.Close(); err != nil {
			app.logger.Error("error closing identity provider database", "error", err)
		}
	}
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			app.logger.Error("error closing profile store", "error", err)
		}
	}
}

// initStore opens the configured profile store and applies migrations
func (app *Application) initStore(ctx context.Context) error {
	var (
		st  store.ProfileStore
		err error
	)
	switch app.cfg.ProfileStore.Driver {
	case DriverPostgres:
		st, err = postgres.NewStore(ctx, app.cfg.ProfileStore.PostgresDSN)
	default:
		st, err = sqlite.NewStore(sqliteDSN(app.cfg.ProfileStore.SQLiteFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize profile store: %w", err)
	}
	app.store = st

	if err := st.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply profile store migrations: %w", err)
	}

	app.logger.Info("profile store ready", "driver", app.cfg.ProfileStore.Driver)
	return nil
}

func sqliteDSN(file string) string {
	if file == ":memory:" {
		return file
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL", file)
}

func (app *Application) initIdentityProvider() error {
	pepper, err := cryptox.LoadOrGeneratePepper(app.cfg.IDP.PepperFile)
	if err != nil {
		return err
	}
	signingKey, err := cryptox.LoadOrGenerateEd25519Key(app.cfg.IDP.SigningKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load identity provider signing key: %w", err)
	}

	idp, err := local.Open(sqliteDSN(app.cfg.IDP.DatabaseFile), local.Config{
		Issuer:           app.cfg.IDP.Issuer,
		VerifyEmailURL:   app.cfg.IDP.VerifyEmailURL,
		IDTokenTTL:       app.cfg.IDP.IDTokenTTL,
		ExchangeTokenTTL: app.cfg.IDP.ExchangeTokenTTL,
		Pepper:           pepper,
		SigningKeyPEM:    signingKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	app.idp = idp

	app.logger.Info("local identity provider ready", "issuer", app.cfg.IDP.Issuer)
	return nil
}

func (app *Application) initNotifications() error {
	switch app.cfg.Notify.Driver {
	case DriverRedis:
		app.redis = redis.NewClient(&redis.Options{Addr: app.cfg.Notify.RedisAddr})
		app.dispatcher = notify.NewRedisDispatcher(app.redis, app.cfg.Notify.RedisStream)
		app.logger.Info("notifications go to redis", "addr", app.cfg.Notify.RedisAddr, "stream", app.cfg.Notify.RedisStream)
	default:
		app.dispatcher = &notify.LogDispatcher{Logger: app.logger}
		app.logger.Warn("notifications are only logged; set NOTIFY_DRIVER=redis to deliver them")
	}
	return nil
}

func (app *Application) initCipher() error {
	key, err := app.cfg.TFAKey()
	if err != nil {
		return err
	}
	cipher, err := cryptox.NewSecretCipher(key)
	if err != nil {
		return fmt.Errorf("failed to initialize tfa cipher: %w", err)
	}
	if !cipher.Enabled() {
		app.logger.Warn("TFA_ENCRYPTION_KEY is not set; tfa secrets are stored unencrypted")
	}
	app.cipher = cipher
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.registrationService = &service.RegistrationService{Store: app.store, Provider: app.idp}
	app.recoveryService = &service.RecoveryService{
		Store:      app.store,
		Provider:   app.idp,
		Dispatcher: app.dispatcher,
	}
	app.tfaService = &service.TFAService{
		Store:  app.store,
		Cipher: app.cipher,
		Issuer: app.cfg.AppName,
	}
	app.loginService = &service.LoginService{Store: app.store, Provider: app.idp, TFA: app.tfaService}
	app.profileService = &service.ProfileService{
		Store:      app.store,
		Provider:   app.idp,
		Dispatcher: app.dispatcher,
	}

	app.reconciler = service.NewOrphanReconciler(
		app.store,
		app.idp,
		app.logger,
		app.cfg.OrphanReconcileInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.cfg.RateLimits, BuildVersion, app.logger)

	router.Provider = app.idp
	router.LocalIDP = app.idp
	router.RegistrationService = app.registrationService
	router.RecoveryService = app.recoveryService
	router.TFAService = app.tfaService
	router.LoginService = app.loginService
	router.ProfileService = app.profileService
	router.ExposeTFASecret = app.cfg.TFA.ExposeSecret
	router.Readiness = map[string]httpapi.Pinger{
		"profile_store":     app.store,
		"identity_provider": app.idp,
	}
	if app.redis != nil {
		router.Readiness["notifications"] = pingFunc(func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		})
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
