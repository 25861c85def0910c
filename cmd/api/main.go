// @title          Hour Bank API
// @version        1.0
// @description    Time banking: members trade hours of service paid with hour credits.
// @BasePath       /api/v1
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hourbank/timebank/internal/api"
	"github.com/hourbank/timebank/internal/api/handler"
	"github.com/hourbank/timebank/internal/api/middleware"
	"github.com/hourbank/timebank/internal/core/ports"
	"github.com/hourbank/timebank/internal/core/service"
	mongodb "github.com/hourbank/timebank/internal/infrastructure/db/mongo"
	redisdb "github.com/hourbank/timebank/internal/infrastructure/db/redis"
	"github.com/hourbank/timebank/internal/infrastructure/notify"
	"github.com/hourbank/timebank/internal/infrastructure/queue"
	"github.com/hourbank/timebank/internal/pkg/config"
	"github.com/hourbank/timebank/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.New(logger.Options{})
		log.Fatal().Err(err).Msg("hour bank stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "hour-bank",
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	orders := mongodb.NewOrderRepository(db)
	reviews := mongodb.NewReviewRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, orders, reviews); err != nil {
		return err
	}
	ledger := mongodb.NewCreditLedger(db)

	// --- Notifications ---
	notifier := buildNotifier(cfg, log)
	dispatcher := queue.NewDispatcher(cfg.Workers, notifier, log)

	// --- Services ---
	authService := service.NewAuthService(users, notifier, service.AuthConfig{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenTTL:      cfg.Auth.TokenTTL,
		SignupCredit:  cfg.Auth.SignupCredit,
		PublicBaseURL: cfg.PublicBaseURL,
	}, log)
	userService := service.NewUserService(users, orders, reviews, log)
	orderService := service.NewOrderService(users, orders, ledger, notifier, dispatcher, service.OrderConfig{
		PublicBaseURL:  cfg.PublicBaseURL,
		ApprovalWindow: cfg.Orders.ApprovalWindow,
	}, log)
	reviewService := service.NewReviewService(users, orders, reviews, log)

	e := api.NewRouter(api.RouterConfig{
		JWTSecret: cfg.Auth.JWTSecret,
		RateLimit: middleware.RateLimitConfig{Max: cfg.Limit.Max, Window: cfg.Limit.Window},
		Counter:   redisdb.NewWindowCounter(rdb),
		Auth:      authService,
		Users:     userService,
		Orders:    orderService,
		Reviews:   reviewService,
		Health: map[string]handler.PingFunc{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: log,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})

	if cfg.Orders.SweepInterval > 0 {
		sweeper := queue.NewExpirySweeper(orderService, cfg.Orders.SweepInterval, log)
		g.Go(func() error {
			sweeper.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

// buildNotifier mails through SMTP when a host is configured and only logs
// notifications otherwise.
func buildNotifier(cfg *config.Config, log zerolog.Logger) ports.Notifier {
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, notifications will only be logged")
		return notify.NewLogNotifier(log)
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
}
