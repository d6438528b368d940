package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/slabmarket/settlement-service/internal/app/background"
	"github.com/slabmarket/settlement-service/internal/config"
	"github.com/slabmarket/settlement-service/internal/delivery/httpapi"
	"github.com/slabmarket/settlement-service/internal/infrastructure/gradingregistry"
	"github.com/slabmarket/settlement-service/internal/infrastructure/kafka"
	"github.com/slabmarket/settlement-service/internal/infrastructure/metrics"
	"github.com/slabmarket/settlement-service/internal/infrastructure/migrate"
	"github.com/slabmarket/settlement-service/internal/infrastructure/payments"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres"
	"github.com/slabmarket/settlement-service/internal/infrastructure/postgres/repository"
	disputeuc "github.com/slabmarket/settlement-service/internal/usecase/dispute"
	escrowuc "github.com/slabmarket/settlement-service/internal/usecase/escrow"
	matchinguc "github.com/slabmarket/settlement-service/internal/usecase/matching"
	shipmentuc "github.com/slabmarket/settlement-service/internal/usecase/shipment"
	verificationuc "github.com/slabmarket/settlement-service/internal/usecase/verification"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	setupLogger(cfg)

	// Init database
	db := postgres.MustInitDB(cfg)
	if path := os.Getenv("SETTLEMENT_MIGRATIONS_PATH"); path != "" {
		if err := migrate.RunMigrations(db, path); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Kafka publishers, one topic per event stream
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	tradePublisher, err := kafka.NewKafkaPublisherFromConfig(kafka.KafkaConfig{
		Brokers:    brokers,
		Topic:      "trade-events",
		Username:   cfg.KafkaService.Username,
		Password:   cfg.KafkaService.Password,
		Mechanism:  cfg.KafkaService.Mechanism,
		TLSEnabled: cfg.KafkaService.TLSEnabled,
	})
	if err != nil {
		log.Fatalf("failed to init kafka trade publisher: %v", err)
	}
	disputePublisher, err := kafka.NewKafkaPublisherFromConfig(kafka.KafkaConfig{
		Brokers:    brokers,
		Topic:      "dispute-events",
		Username:   cfg.KafkaService.Username,
		Password:   cfg.KafkaService.Password,
		Mechanism:  cfg.KafkaService.Mechanism,
		TLSEnabled: cfg.KafkaService.TLSEnabled,
	})
	if err != nil {
		log.Fatalf("failed to init kafka dispute publisher: %v", err)
	}

	// External facades
	gateway := payments.NewHTTPPaymentGateway(
		fmt.Sprintf("http://%s:%s", cfg.PaymentGateway.Host, cfg.PaymentGateway.Port),
		cfg.PaymentGateway.Timeout,
	)
	registry := gradingregistry.NewHTTPGradingRegistry(
		fmt.Sprintf("http://%s:%s", cfg.GradingRegistry.Host, cfg.GradingRegistry.Port),
		cfg.GradingRegistry.Timeout,
	)

	// Repositories
	orderRepo := repository.NewDefaultOrderRepository(db)
	tradeRepo := repository.NewDefaultTradeRepository(db)
	escrowRepo := repository.NewDefaultEscrowRepository(db)
	cardRepo := repository.NewDefaultCardInstanceRepository(db)
	shipmentRepo := repository.NewDefaultShipmentRepository(db)
	disputeRepo := repository.NewDefaultDisputeRepository(db)

	settlementMetrics := metrics.NewSettlementMetrics()

	// Usecases
	escrowUsecase := escrowuc.NewDefaultEscrowUsecase(
		escrowRepo,
		tradeRepo,
		cardRepo,
		disputeRepo,
		shipmentRepo,
		gateway,
		tradePublisher,
		settlementMetrics,
	)
	matchingUsecase, err := matchinguc.NewDefaultMatchingUsecase(
		orderRepo,
		tradeRepo,
		cardRepo,
		escrowUsecase,
		tradePublisher,
		settlementMetrics,
	)
	if err != nil {
		log.Fatalf("failed to init matching usecase: %v", err)
	}
	verificationUsecase := verificationuc.NewDefaultVerificationUsecase(
		cardRepo,
		tradeRepo,
		escrowUsecase,
		registry,
		settlementMetrics,
		cfg.Settlement.ReleaseRequiresDelivery,
	)
	shipmentUsecase := shipmentuc.NewDefaultShipmentUsecase(
		shipmentRepo,
		tradeRepo,
		cardRepo,
		escrowUsecase,
		settlementMetrics,
	)
	disputeUsecase := disputeuc.NewDefaultDisputeUsecase(
		disputeRepo,
		tradeRepo,
		cardRepo,
		escrowUsecase,
		disputePublisher,
		settlementMetrics,
	)

	// Background workers
	tasks := &background.Tasks{
		Verification:    verificationUsecase,
		Escrow:          escrowUsecase,
		TradeRepo:       tradeRepo,
		ClaimTTL:        cfg.Settlement.ClaimTTL,
		RequireDelivery: cfg.Settlement.ReleaseRequiresDelivery,
	}
	tasks.StartAll(context.Background())

	// HTTP server
	handler := httpapi.NewHandler(
		matchingUsecase,
		escrowUsecase,
		verificationUsecase,
		shipmentUsecase,
		disputeUsecase,
	)
	server := httpapi.NewServer(cfg, handler)

	slog.Info("settlement service listening", "addr", server.Addr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("http server stopped: %v", err)
	}
}

func setupLogger(cfg *config.SettlementConfig) {
	level := slog.LevelInfo
	switch cfg.LogConfig.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.LogConfig.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
