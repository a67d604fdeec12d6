package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/opd-scheduler/internal/config"
	"github.com/jwalitptl/opd-scheduler/internal/email"
	"github.com/jwalitptl/opd-scheduler/internal/handler"
	authHandler "github.com/jwalitptl/opd-scheduler/internal/handler/auth"
	closureHandler "github.com/jwalitptl/opd-scheduler/internal/handler/closure"
	doctorHandler "github.com/jwalitptl/opd-scheduler/internal/handler/doctor"
	eventsHandler "github.com/jwalitptl/opd-scheduler/internal/handler/events"
	messageHandler "github.com/jwalitptl/opd-scheduler/internal/handler/message"
	opsHandler "github.com/jwalitptl/opd-scheduler/internal/handler/ops"
	scheduleHandler "github.com/jwalitptl/opd-scheduler/internal/handler/schedule"
	"github.com/jwalitptl/opd-scheduler/internal/middleware"
	"github.com/jwalitptl/opd-scheduler/internal/parser"
	"github.com/jwalitptl/opd-scheduler/internal/repository/postgres"
	"github.com/jwalitptl/opd-scheduler/internal/router"
	authService "github.com/jwalitptl/opd-scheduler/internal/service/auth"
	closureService "github.com/jwalitptl/opd-scheduler/internal/service/closure"
	"github.com/jwalitptl/opd-scheduler/internal/service/directory"
	scheduleService "github.com/jwalitptl/opd-scheduler/internal/service/schedule"
	"github.com/jwalitptl/opd-scheduler/internal/worker"
	"github.com/jwalitptl/opd-scheduler/pkg/auth"
	"github.com/jwalitptl/opd-scheduler/pkg/event"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/messaging"
	redisbroker "github.com/jwalitptl/opd-scheduler/pkg/messaging/redis"
	"github.com/jwalitptl/opd-scheduler/pkg/metrics"
	"github.com/jwalitptl/opd-scheduler/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:    logger.InfoLevel,
		Output:   os.Stdout,
		RingSize: 200,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		appLogger.Fatal(err, "failed to apply schema")
	}

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	doctorRepo := postgres.NewDoctorRepository(baseRepo)
	scheduleRepo := postgres.NewScheduleRepository(baseRepo)
	closureRepo := postgres.NewClosureRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)

	// Ambient infrastructure
	appMetrics := metrics.NewMetrics("opd", "scheduler")
	broker := event.NewBroker(64)

	var relay messaging.Broker
	if cfg.Redis.URL != "" {
		zl := log.Logger
		relay, err = redisbroker.NewRedisBroker(redisbroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &zl)
		if err != nil {
			appLogger.Fatal(err, "failed to connect to redis")
		}
		defer relay.Close()
	}

	// Services
	clock := parser.NewClock(cfg.Hospital.TZOffsetMinutes)
	closureWeekday := scheduleService.ParseWeekday(cfg.Hospital.ClosureWeekday)

	directorySvc := directory.NewService(doctorRepo, appLogger)
	mailer := email.NewService(cfg.SMTP, appLogger)
	closureSvc := closureService.NewService(closureRepo, broker, mailer, appMetrics, appLogger)
	scheduleSvc := scheduleService.NewService(
		scheduleRepo, doctorRepo, closureRepo,
		broker, relay, appMetrics, appLogger,
		clock, closureWeekday,
	)

	hasher := security.NewBcryptHasher(0)
	tokens := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(userRepo, hasher, tokens, appLogger)
	if err := authSvc.EnsureDefaultAdmin(ctx, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		appLogger.Fatal(err, "failed to bootstrap admin account")
	}

	// Interpreter and bot plumbing
	sender := worker.NewSender(cfg.Bot, appLogger, appMetrics)
	interpreter := parser.NewInterpreter(
		directorySvc, scheduleSvc, closureSvc, sender,
		clock, appLogger, appMetrics,
	)

	var poller *worker.Poller
	if cfg.Bot.Enabled {
		poller = worker.NewPoller(cfg.Bot, interpreter, appLogger, appMetrics)
		go poller.Start(ctx)
	}

	// Handlers
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	doctorH := doctorHandler.NewHandler(directorySvc)
	scheduleH := scheduleHandler.NewHandler(scheduleSvc, cfg.Hospital.DisplayDays)
	closureH := closureHandler.NewHandler(closureSvc)
	messageH := messageHandler.NewHandler(interpreter)
	eventsH := eventsHandler.NewHandler(broker)
	var botStatus opsHandler.BotStatus
	if poller != nil {
		botStatus = poller
	}
	opsH := opsHandler.NewHandler(appLogger, botStatus)

	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.NewRouter(
		authMiddleware,
		h, authH, doctorH, scheduleH, closureH, messageH, eventsH, opsH,
		router.Config{
			RateLimit:     rate.Limit(50),
			RateBurst:     100,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "opd_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: 0, // SSE streams stay open
	}

	go func() {
		appLogger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "graceful shutdown failed")
	}
}
