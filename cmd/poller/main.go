package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/opd-scheduler/internal/config"
	"github.com/jwalitptl/opd-scheduler/internal/email"
	"github.com/jwalitptl/opd-scheduler/internal/parser"
	"github.com/jwalitptl/opd-scheduler/internal/repository/postgres"
	closureService "github.com/jwalitptl/opd-scheduler/internal/service/closure"
	"github.com/jwalitptl/opd-scheduler/internal/service/directory"
	scheduleService "github.com/jwalitptl/opd-scheduler/internal/service/schedule"
	"github.com/jwalitptl/opd-scheduler/internal/worker"
	"github.com/jwalitptl/opd-scheduler/pkg/event"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/messaging"
	redisbroker "github.com/jwalitptl/opd-scheduler/pkg/messaging/redis"
	"github.com/jwalitptl/opd-scheduler/pkg/metrics"
)

// Standalone dispatch loop: polls the bot API and applies schedule
// messages without serving the REST API. Deployed when the webhook
// process and the bot loop must scale separately.
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

	baseRepo := postgres.NewBaseRepository(db)
	doctorRepo := postgres.NewDoctorRepository(baseRepo)
	scheduleRepo := postgres.NewScheduleRepository(baseRepo)
	closureRepo := postgres.NewClosureRepository(baseRepo)

	appMetrics := metrics.NewMetrics("opd", "poller")
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

	sender := worker.NewSender(cfg.Bot, appLogger, appMetrics)
	interpreter := parser.NewInterpreter(
		directorySvc, scheduleSvc, closureSvc, sender,
		clock, appLogger, appMetrics,
	)
	poller := worker.NewPoller(cfg.Bot, interpreter, appLogger, appMetrics)

	setupHealthCheck(appLogger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down")
		cancel()
	}()

	poller.Start(ctx)
}

func setupHealthCheck(appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:        ":8081",
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error(err, "health check server failed")
		}
	}()
}
