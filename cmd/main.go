// @title RemindMe Backend API
// @version 1.0
// @description Reminder management API with weekly-ahead email notifications
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/cors"

	_ "REMINDME_BACK-END/docs" // This is required for swagger
	"REMINDME_BACK-END/internal/config"
	"REMINDME_BACK-END/internal/handlers"
	"REMINDME_BACK-END/internal/logging"
	"REMINDME_BACK-END/internal/mail"
	"REMINDME_BACK-END/internal/repository"
	"REMINDME_BACK-END/internal/repository/postgres"
	"REMINDME_BACK-END/internal/repository/sqlite"
	"REMINDME_BACK-END/internal/routes"
	"REMINDME_BACK-END/internal/scheduler"
	"REMINDME_BACK-END/internal/services"
	"REMINDME_BACK-END/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "remindme: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.Log.Format, cfg.Log.Level).With("app", cfg.AppName)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, w := range cfg.Warnings {
		logger.Warn(ctx, w)
	}

	// --- Store ---
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info(ctx, "store ready", "driver", cfg.Database.Driver)

	// --- Services ---
	authService := services.NewAuthService(store.Users(), 0)
	reminderService := services.NewReminderService(store)

	signer, err := session.NewSigner(cfg.Session.Secret, cfg.AppName)
	if err != nil {
		return err
	}
	sessions := session.NewManager(authService, session.NewMemoryStore(), signer, cfg.Session.TTL)

	var mailer mail.Mailer = mail.NewLogMailer(logger)
	if cfg.IsEmailConfigured() {
		mailer = mail.NewSMTPMailer(cfg.Email)
	}

	// --- Background runners ---
	notifications := scheduler.NewNotificationJob(store.Reminders(), mailer, logger, scheduler.NotificationConfig{
		AppName:  cfg.AppName,
		LeadDays: cfg.Scheduler.LeadDays,
		Location: cfg.Location(),
	})
	runners := []*scheduler.Runner{
		scheduler.NewRunner("session-sweep", cfg.Session.SweepInterval, scheduler.SessionSweep(sessions, logger), logger),
	}
	if cfg.Scheduler.Enabled {
		runners = append(runners, scheduler.NewRunner("notifications", cfg.Scheduler.Interval, notifications.Run, logger,
			scheduler.WithRunOnStart(cfg.Scheduler.RunOnStart)))
	}
	for _, r := range runners {
		if err := r.Start(ctx); err != nil {
			return err
		}
	}
	defer func() {
		for _, r := range runners {
			r.Stop()
		}
	}()

	// --- HTTP Handlers ---
	cookie := handlers.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure}

	var provider handlers.IdentityProvider
	if cfg.IsGoogleOAuthConfigured() {
		provider = handlers.NewGoogleProvider(cfg.GoogleOAuth)
	}

	router := routes.SetupRoutes(routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, sessions, cookie, logger),
		Reminders:  handlers.NewRemindersHandler(reminderService, logger),
		Health:     handlers.NewHealthHandler(store),
		GoogleAuth: handlers.NewGoogleAuthHandler(provider, authService, sessions, cookie, cfg.GoogleOAuth.FrontendURL, logger),
	}, sessions, cfg.Session.CookieName, logger)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info(context.Background(), "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown error", "error", err)
	}
	logger.Info(shutdownCtx, "server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.Database.SQLitePath, cfg.Database.QueryTimeout)
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()

		s, err := postgres.Open(pingCtx, postgres.Options{
			DSN:             cfg.GetDSN(),
			ApplicationName: "remindme-backend",
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxLifetime,
			QueryTimeout:    cfg.Database.QueryTimeout,
			SimpleProtocol:  cfg.Database.SimpleProtocol,
		})
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
}
