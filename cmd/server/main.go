package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/daraw/billing-server-go/internal/config"
	"github.com/daraw/billing-server-go/internal/database"
	"github.com/daraw/billing-server-go/internal/handler"
	"github.com/daraw/billing-server-go/internal/jobs"
	"github.com/daraw/billing-server-go/internal/middleware"
	"github.com/daraw/billing-server-go/internal/redis"
	"github.com/daraw/billing-server-go/internal/repository"
	"github.com/daraw/billing-server-go/internal/service"
	"github.com/daraw/billing-server-go/internal/token"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	codeRepo := repository.NewOneTimeCodeRepository(db.DB)
	proposalRepo := repository.NewProposalRepository(db.DB)
	invoiceRepo := repository.NewInvoiceRepository(db.DB)

	issuer := token.NewIssuer(cfg.SessionSigningKey)
	gate := token.NewGate(cfg.SessionSigningKey)

	authService := service.NewAuthService(userRepo, issuer)
	otpService := service.NewOTPService(codeRepo, issuer, cfg.CustomAccessCode, cfg.CodeTTL())
	proposalService := service.NewProposalService(db, proposalRepo, otpService)
	invoiceService := service.NewInvoiceService(db, invoiceRepo, otpService)

	if cfg.AdminEmail != "" {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		err := authService.EnsureOperator(seedCtx, cfg.AdminEmail, cfg.AdminPasswordHash)
		seedCancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create bootstrap operator")
		}
	}

	rateLimiter := service.NewRateLimiter(redisClient.Client)
	loginRateLimit := middleware.NewCredentialRateLimitMiddleware(
		rateLimiter, redis.LoginLimitKey, config.LoginAttemptsPerWindow, config.CredentialLimitWindow,
	)
	codeRateLimit := middleware.NewCredentialRateLimitMiddleware(
		rateLimiter, redis.CodeLimitKey, config.CodeAttemptsPerWindow, config.CredentialLimitWindow,
	)

	sessionGate := middleware.NewSessionGateMiddleware(gate)
	csrfMiddleware := middleware.NewCSRFMiddleware(cfg.InsecureCookies)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(
		authService, otpService, sessionGate.Handler,
		loginRateLimit.Handler, codeRateLimit.Handler, cfg.InsecureCookies,
	)
	proposalHandler := handler.NewProposalHandler(proposalService, sessionGate.Handler)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, sessionGate.Handler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		// Credential entry points carry their own secret and must be
		// reachable by clients that have never been issued a CSRF
		// cookie, so they stay outside the CSRF group.
		r.Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(csrfMiddleware.Handler)
			r.Mount("/proposals", proposalHandler.Routes())
			r.Mount("/invoices", invoiceHandler.Routes())
		})
	})

	cleanupJob := jobs.NewCleanupJob(codeRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
