package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	customersrepository "spadesk/internal/customers/repository"
	customersservice "spadesk/internal/customers/service"
	customersvalidator "spadesk/internal/customers/validator"
	"spadesk/internal/events"
	ledgerrepository "spadesk/internal/ledger/repository"
	ledgerservice "spadesk/internal/ledger/service"
	ledgervalidator "spadesk/internal/ledger/validator"
	visitsrepository "spadesk/internal/visits/repository"
	"spadesk/pkg/config"
	"spadesk/pkg/kafka"
	kafka_config "spadesk/pkg/kafka/config"
	kafkamiddleware "spadesk/pkg/kafka/middleware"
	"spadesk/pkg/metrics"
)

const ServiceName = "ledger-auditor"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.LedgerTopic == "" {
		cfg.Log.Fatal("LEDGER_TOPIC is required")
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	m := metrics.New()
	ledgerService := initLedger(cfg, m)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.Log, cfg.LedgerTopic, cfg.AuditorGroupID, cfg.LedgerDLQTopic,
		events.AuditHandler(ledgerService, cfg.Log, m))
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafkamiddleware.MetricsConsumerMiddleware(m))
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting ledger auditor", "topic", cfg.LedgerTopic, "group_id", cfg.AuditorGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Ledger auditor stopped", "error", err)
		return
	}
	cfg.Log.Info("Ledger auditor stopped")
}

// initLedger builds the read side the auditor needs. Events are not
// republished from here.
func initLedger(cfg *config.Config, m *metrics.Metrics) ledgerservice.LedgerService {
	customerService := customersservice.NewCustomerService(
		customersrepository.NewMongoCustomerRepository(cfg),
		visitsrepository.NewMongoVisitRepository(cfg),
		customersvalidator.NewCustomerValidator(cfg.Log),
		cfg,
	)
	return ledgerservice.NewLedgerService(
		ledgerrepository.NewMongoLedgerRepository(cfg),
		customerService,
		ledgervalidator.NewLedgerValidator(cfg.Log),
		events.NoopPublisher{},
		m,
		cfg,
	)
}
