package main

import (
	"deedledger/server/config"
	"deedledger/server/internal/api"
	"deedledger/server/internal/database"
	"deedledger/server/internal/events"
	"deedledger/server/internal/ledger"
	"deedledger/server/internal/metrics"
	"deedledger/server/internal/notify"
	"deedledger/server/internal/payments"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Infof("Using database at: %s", cfg.DatabasePath)
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	outboundTimeout := time.Duration(cfg.OutboundTimeout) * time.Second

	// Event bus feeds external listeners; delivery is asynchronous and
	// never blocks ledger operations.
	bus := events.NewBus(cfg.EventBufferSize, logger)
	if cfg.NotifyWebhookURL != "" {
		webhook := notify.NewWebhook(cfg.NotifyWebhookURL, outboundTimeout, logger)
		bus.Subscribe(webhook.HandleEvent)
		logger.Infof("Webhook notifications enabled: %s", cfg.NotifyWebhookURL)
	}
	bus.Start()
	defer bus.Close()

	// Value-transfer collaborator. Without an endpoint, transfers are
	// logged so purchases still settle in development.
	var transferor payments.Transferor
	if cfg.SettlementEndpoint != "" {
		transferor = payments.NewHTTPTransferor(cfg.SettlementEndpoint, outboundTimeout, logger)
		logger.Infof("Settlement endpoint: %s", cfg.SettlementEndpoint)
	} else {
		transferor = payments.NewLogTransferor(logger)
		logger.Warn("No settlement endpoint configured, value transfers will only be logged")
	}

	registry := ledger.NewRegistry(db, bus, logger)
	escrow := ledger.NewEngine(registry, transferor, logger)

	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	handler := api.NewHandler(registry, escrow, m, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestID())
	router.Use(api.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", api.IdentityHeader},
	}))

	api.SetupRoutes(router, handler, promRegistry)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
