package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esl-be/internal/checkout"
	"esl-be/internal/config"
	"esl-be/internal/db"
	"esl-be/internal/logger"
	"esl-be/internal/middleware"
	"esl-be/internal/order"
	"esl-be/internal/payment"
	"esl-be/internal/payment/webhook"
	"esl-be/internal/rest"
	"esl-be/internal/user"
	"esl-be/internal/utils"
	"esl-be/internal/verification"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Overridable in tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

type handlers struct {
	Webhook *webhook.Handler
	Payment *rest.PaymentHandler
	Auth    *rest.AuthHandler
}

type app struct {
	router  http.Handler
	sweeper *verification.Sweeper
	limiter *middleware.RateLimiter
}

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if cfg.PayChanguWebhookSecret == "" {
		logger.L().Warn("PAYCHANGU_WEBHOOK_SECRET is empty, every callback will be rejected")
	}
	if cfg.TestSignatureAllowed() {
		logger.L().Warn("webhook test signature bypass is enabled")
	}

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newServer(cfg, database)
	go a.sweeper.Run(ctx)
	go a.limiter.Cleanup(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.L().Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, srv)
}

// startServer serves until ctx is cancelled, then drains in-flight requests.
func startServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newServer(cfg *config.Config, database *sql.DB) *app {
	orderSvc := order.NewService(order.NewRepository(database))
	paymentRepo := payment.NewRepository(database)
	gateway := payment.NewPayChanguGateway(cfg.PayChanguSecretKey, cfg.PayChanguBaseURL)
	verifier := payment.NewSignatureVerifier(cfg.PayChanguWebhookSecret, cfg.TestSignatureAllowed())

	userSvc := user.NewService(user.NewRepository(database), cfg.JWTSecret)
	codeRepo := verification.NewRepository(database)
	codeSvc := verification.NewService(codeRepo, cfg.VerificationCodeTTL)

	h := handlers{
		Webhook: webhook.NewWebhookHandler(orderSvc, paymentRepo, verifier),
		Payment: rest.NewPaymentHandler(checkout.NewService(orderSvc, paymentRepo, gateway, cfg.AppBaseURL)),
		Auth:    rest.NewAuthHandler(userSvc, codeSvc, cfg.IsProduction()),
	}

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)

	return &app{
		router:  setupRouter(cfg, h, limiter),
		sweeper: verification.NewSweeper(codeRepo, cfg.VerificationSweepEvery),
		limiter: limiter,
	}
}

func setupRouter(cfg *config.Config, h handlers, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	r.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	r.Use(limiter.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	r.Route("/api/payment", func(r chi.Router) {
		r.Get("/callback", h.Webhook.Health)
		r.Post("/callback", h.Webhook.Callback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/initiate", h.Payment.Initiate)
			r.Post("/verify", h.Payment.Verify)
		})
	})

	r.Get("/internal/metrics/webhooks", h.Webhook.StatsHandler)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/verification/request", h.Auth.RequestCode)
		r.Post("/verification/confirm", h.Auth.ConfirmCode)
	})

	return r
}
