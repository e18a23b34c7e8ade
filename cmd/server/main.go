package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/foodshare/backend/internal/config"
	"github.com/foodshare/backend/internal/handler"
	"github.com/foodshare/backend/internal/mailer"
	"github.com/foodshare/backend/internal/repository"
	"github.com/foodshare/backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelMigrate()
	if err := repository.Migrate(migrateCtx, db); err != nil {
		return err
	}
	slog.Info("database ready")

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var mail service.EmailSender
	if cfg.MailEnabled() {
		mail = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
		slog.Info("smtp mailer enabled", "host", cfg.SMTPHost)
	} else {
		slog.Info("smtp not configured, email delivery disabled")
	}

	notifier := service.NewNotifier(notificationRepo, mail, logger)

	authSvc := service.NewAuthService(userRepo, orgRepo, donationRepo, service.AuthConfig{
		JWTSecret:          cfg.JWTSecret,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		FrontendURL:        cfg.FrontendURL,
	})
	donationSvc := service.NewDonationService(donationRepo, claimRepo, userRepo, notifier, cfg.PublicBaseURL, logger)
	claimSvc := service.NewClaimService(donationRepo, claimRepo, userRepo, notifier)
	sweepSvc := service.NewSweepService(donationRepo, claimRepo, userRepo, notifier, logger)
	adminSvc := service.NewAdminService(userRepo, orgRepo, donationRepo, notifier)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Validator = handler.NewAppValidator()

	e.Use(echomw.RequestID())
	e.Use(handler.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.RegisterRoutes(e, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Donations:     handler.NewDonationHandler(donationSvc),
		NGO:           handler.NewNGOHandler(claimSvc),
		Notifications: handler.NewNotificationHandler(notificationRepo),
		Admin:         handler.NewAdminHandler(adminSvc, sweepSvc),
	}, authSvc)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runSweeper(sweepCtx, sweepSvc, cfg.SweepInterval)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	notifier.Wait()

	slog.Info("server stopped gracefully")
	return nil
}

// runSweeper runs the maintenance sweeps on a fixed interval until the
// context is cancelled. The first pass fires immediately so a restart
// never postpones overdue expirations by a full interval.
func runSweeper(ctx context.Context, sweep *service.SweepService, interval time.Duration) {
	sweep.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweep.Run(ctx)
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		}
	}
}
