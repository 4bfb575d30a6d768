package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"pool-route-scheduler/internal/config"
	"pool-route-scheduler/internal/database"
	"pool-route-scheduler/internal/handler"
	"pool-route-scheduler/internal/logger"
	"pool-route-scheduler/internal/repository"
	"pool-route-scheduler/internal/service"
	"pool-route-scheduler/pkg/telegram"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	issueToken := flag.String("token", "", "print a dispatcher API token for this user id and exit")
	flag.Parse()

	logrus.Info("Initializing config...")
	cfg := config.GetConfig()
	logger.Setup(cfg.LogLevel, cfg.LogFile, cfg.LogJSON)
	logrus.Info("Config initialized...")

	if *issueToken != "" {
		if cfg.JWTSecret == "" {
			logrus.Fatal("JWT_SECRET is not set, API auth is disabled")
		}
		token, err := handler.GenerateToken([]byte(cfg.JWTSecret), *issueToken, "dispatcher", 30*24*time.Hour)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to sign token")
		}
		fmt.Println(token)
		return
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	scheduleRepo, err := repository.NewGormScheduleRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create schedule repository")
	}

	occurrenceRepo, err := repository.NewGormOccurrenceRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create occurrence repository")
	}

	routeRepo, err := repository.NewGormRouteRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create route repository")
	}

	stopRepo, err := repository.NewGormRouteStopRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create route stop repository")
	}

	unscheduledRepo, err := repository.NewGormUnscheduledStopRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create unscheduled stop repository")
	}

	overrideRepo, err := repository.NewGormOverrideRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create override repository")
	}

	estimateRepo, err := repository.NewGormEstimateRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create estimate repository")
	}

	assignmentRepo, err := repository.NewGormPropertyTechnicianRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create property technician repository")
	}

	propertyRepo, err := repository.NewPropertyRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create property repository")
	}

	technicianRepo, err := repository.NewTechnicianRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create technician repository")
	}

	occurrenceService := service.NewOccurrenceService(occurrenceRepo, scheduleRepo, routeRepo, propertyRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, occurrenceService)
	routeService := service.NewRouteService(
		routeRepo,
		stopRepo,
		unscheduledRepo,
		occurrenceRepo,
		scheduleRepo,
		assignmentRepo,
		propertyRepo,
		technicianRepo,
	)
	overrideService := service.NewOverrideService(overrideRepo, technicianRepo)
	assignmentService := service.NewPropertyTechnicianService(assignmentRepo, technicianRepo)
	jobService := service.NewJobService(estimateRepo, technicianRepo)

	var notifier service.Notifier
	if cfg.NotificationsEnabled() {
		client, err := telegram.NewClient(cfg.TelegramToken, cfg.DispatchChatID)
		if err != nil {
			logrus.WithError(err).Warn("Failed to create Telegram client, dispatch notifications disabled")
		} else {
			logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)
			notifier = client
		}
	}

	sweeper := service.NewDeadlineSweeper(estimateRepo, technicianRepo, notifier)
	if err := sweeper.Start(cfg.DeadlineSweepMinutes); err != nil {
		logrus.WithError(err).Fatal("Failed to start deadline sweeper")
	}

	apiHandler := handler.NewHandler(
		scheduleService,
		occurrenceService,
		routeService,
		overrideService,
		assignmentService,
		jobService,
		sweeper,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apiHandler.Router(cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("API listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown incomplete")
	}

	sweeper.Stop()

	if err := database.Close(db); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Scheduler stopped gracefully")
}
