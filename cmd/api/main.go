package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/enthub-api/internal/application/auth"
	"github.com/enthub-api/internal/application/functions"
	"github.com/enthub-api/internal/application/lists"
	"github.com/enthub-api/internal/application/notification"
	"github.com/enthub-api/internal/application/user"
	"github.com/enthub-api/internal/config"
	"github.com/enthub-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/enthub-api/internal/infrastructure/jwt"
	redisinfra "github.com/enthub-api/internal/infrastructure/redis"
	"github.com/enthub-api/internal/infrastructure/smtp"
	"github.com/enthub-api/internal/infrastructure/tmdb"
	"github.com/enthub-api/internal/live"
	"github.com/enthub-api/internal/pkg/scheduler"
	transporthttp "github.com/enthub-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		slog.Error("dynamo client", "err", err)
		os.Exit(1)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	// JWT is optional; without keys the function surface trusts its userId argument.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		slog.Warn("JWT provider not available", "err", err)
	}

	limiter := redisinfra.NewMemoryIssueLimiter(cfg.OtpIssueWindow, cfg.OtpIssueLimit)
	if cfg.RedisAddr != "" {
		client, err := redisinfra.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, using in-process issue limiter", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer client.Close()
			limiter = redisinfra.NewIssueLimiter(client, cfg.OtpIssueWindow, cfg.OtpIssueLimit)
		}
	}

	var mailer notification.Mailer
	if cfg.MailConfigured() {
		mailer = smtp.NewMailer(cfg)
	} else {
		slog.Warn("email provider not configured, login codes will be logged")
	}

	sched := scheduler.New(slog.Default())
	hub := live.NewHub(slog.Default())
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)

	authSvc := auth.NewService(auth.ServiceDeps{
		Codes:      dynamo.NewAuthCodeRepo(dynamoClient, cfg.DynamoTables.AuthCodes),
		Users:      userRepo,
		Dispatcher: notification.NewDispatcher(mailer),
		Scheduler:  sched,
		Limiter:    limiter,
	})
	listSvc := lists.NewService(lists.ServiceDeps{
		Watchlist:   dynamo.NewListRepo(dynamoClient, cfg.DynamoTables.Watchlist),
		Watched:     dynamo.NewListRepo(dynamoClient, cfg.DynamoTables.Watched),
		Invalidator: hub,
	})
	userSvc := user.NewService(userRepo)

	fnDeps := functions.Deps{Auth: authSvc, Lists: listSvc, Users: userSvc}
	if jwtProvider != nil {
		fnDeps.Tokens = jwtProvider
	}
	functions.Register(hub, fnDeps)

	deps := &transporthttp.Deps{
		Auth:        authSvc,
		Lists:       listSvc,
		Users:       userSvc,
		Media:       tmdb.NewClient(cfg),
		Hub:         hub,
		JWTProvider: jwtProvider,
	}
	routerCtx, stopRouter := context.WithCancel(ctx)
	defer stopRouter()
	router := transporthttp.NewRouter(routerCtx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		// Open subscription streams end when routerCtx is cancelled.
		BaseContext: func(net.Listener) context.Context { return routerCtx },
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stopRouter()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	if err := sched.Shutdown(shutdownCtx); err != nil {
		slog.Warn("scheduled actions abandoned", "err", err)
	}
	slog.Info("server stopped")
}
