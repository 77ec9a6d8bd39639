package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talks/internal/assets"
	"talks/internal/config"
	"talks/internal/mail"
	"talks/internal/observability/logging"
	"talks/internal/observability/metrics"
	"talks/internal/observability/middleware"
	"talks/internal/presence"
	"talks/internal/service"
	impl "talks/internal/service/impl"
	"talks/internal/store"
	httpx "talks/internal/transport/http"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	logger := logging.NewLogger(logging.Config{
		ServiceName: "talks",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	cfg := config.Load()
	metrics.MustRegister("talks")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) Storage
	st, err := store.Open(ctx, store.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL, PingTimeout: 5 * time.Second})
	if err != nil {
		logger.Error("database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	if cfg.AutoMigrate {
		err = st.AutoMigrate()
	} else {
		err = st.Migrate(ctx)
	}
	if err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	// 2) Outbound collaborators
	var mailer service.EmailService
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.MailFrom,
			CodeTTL:  cfg.CodeTTL,
			ResetTTL: cfg.ResetTokenTTL,
		})
	} else {
		if !cfg.IsDevelopment() {
			logger.Error("SMTP_HOST is required outside development")
			os.Exit(1)
		}
		logger.Warn("SMTP_HOST not set, codes and reset links are written to the log")
		mailer = mail.LogMailer{}
	}

	uploader, err := assets.NewS3Uploader(ctx, assets.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		logger.Error("object storage", "error", err)
		os.Exit(1)
	}

	// 3) Services
	pw := impl.NewPasswordServiceArgon2id()
	sessions := impl.NewSessionServiceHS256(impl.SessionConfig{
		Issuer:     cfg.Issuer,
		TTL:        cfg.SessionTTL,
		SigningKey: []byte(cfg.SessionSecret),
	})
	codes := impl.NewCodeEngine(impl.CodeEngineConfig{
		CodeTTL:   cfg.CodeTTL,
		ResetTTL:  cfg.ResetTokenTTL,
		ClientURL: cfg.ClientURL,
	}, st, mailer, pw)
	tracker := presence.NewTracker(st.Users())

	as := impl.NewAuthServiceImpl(st, pw, sessions, codes, uploader)
	ms := impl.NewMessageServiceImpl(st, uploader, tracker)

	go impl.NewSweeper(st, cfg.SweepInterval).Run(ctx)

	// 4) HTTP
	router := httpx.NewRouter(as, ms, tracker, httpx.Options{
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
		SecureCookies: !cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.WithRequestAndTrace(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("talks listening", "addr", srv.Addr, "environment", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}
}
