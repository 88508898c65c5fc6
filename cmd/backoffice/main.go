package main

import (
	bookingshandler "spadesk/internal/bookings/handler"
	bookingsrepository "spadesk/internal/bookings/repository"
	bookingsservice "spadesk/internal/bookings/service"
	bookingsvalidator "spadesk/internal/bookings/validator"
	cataloghandler "spadesk/internal/catalog/handler"
	catalogrepository "spadesk/internal/catalog/repository"
	catalogservice "spadesk/internal/catalog/service"
	catalogvalidator "spadesk/internal/catalog/validator"
	customershandler "spadesk/internal/customers/handler"
	customersrepository "spadesk/internal/customers/repository"
	customersservice "spadesk/internal/customers/service"
	customersvalidator "spadesk/internal/customers/validator"
	"spadesk/internal/events"
	"spadesk/internal/jobs"
	ledgerhandler "spadesk/internal/ledger/handler"
	ledgerrepository "spadesk/internal/ledger/repository"
	ledgerservice "spadesk/internal/ledger/service"
	ledgervalidator "spadesk/internal/ledger/validator"
	"spadesk/internal/pricing"
	pricinghandler "spadesk/internal/pricing/handler"
	reportshandler "spadesk/internal/reports/handler"
	reportsrepository "spadesk/internal/reports/repository"
	reportsservice "spadesk/internal/reports/service"
	visitshandler "spadesk/internal/visits/handler"
	visitsrepository "spadesk/internal/visits/repository"
	visitsservice "spadesk/internal/visits/service"
	visitsvalidator "spadesk/internal/visits/validator"
	"spadesk/pkg/app"
	"spadesk/pkg/config"
	"spadesk/pkg/contracts"
	"spadesk/pkg/kafka"
	kafka_config "spadesk/pkg/kafka/config"
	kafkamiddleware "spadesk/pkg/kafka/middleware"
	"spadesk/pkg/metrics"
)

const ServiceName = "backoffice"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required to serve the back office")
	}

	cfg.SetMongo()
	cfg.SetRedis()

	m := metrics.New()
	serverApp := app.NewApplication(cfg, m)

	publisher := initPublisher(cfg, m, serverApp)
	handlers, sweep := initServices(cfg, m, publisher)

	scheduler := jobs.NewScheduler(cfg.Location, cfg.Log)
	if err := scheduler.Add(jobs.ReconcileJobName, cfg.ReconcileSchedule, sweep.Job()); err != nil {
		cfg.Log.Fatal("Failed to schedule reconcile job", "error", err)
	}
	serverApp.AddBackground(scheduler)

	cfg.Log.Info("Starting back office")
	serverApp.SetApp(handlers...)
	serverApp.Run()
}

// initPublisher returns a Kafka-backed publisher when events are enabled and
// a no-op one otherwise.
func initPublisher(cfg *config.Config, m *metrics.Metrics, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Ledger events disabled")
		return events.NoopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log, cfg.LedgerTopic, cfg.LedgerDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware(m))
	}
	serverApp.OnShutdown(producer.Close)

	cfg.Log.Info("Ledger events enabled", "topic", cfg.LedgerTopic, "brokers", kafkaCfg.Brokers)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}

func initServices(cfg *config.Config, m *metrics.Metrics, publisher events.Publisher) ([]contracts.Handler, *jobs.ReconcileSweep) {
	visitRepo := visitsrepository.NewMongoVisitRepository(cfg)

	catalogService := catalogservice.NewCatalogService(
		catalogrepository.NewMongoServiceRepository(cfg),
		catalogvalidator.NewServiceValidator(cfg.Log),
		cfg,
	)

	customerService := customersservice.NewCustomerService(
		customersrepository.NewMongoCustomerRepository(cfg),
		visitRepo,
		customersvalidator.NewCustomerValidator(cfg.Log),
		cfg,
	)

	ledgerService := ledgerservice.NewLedgerService(
		ledgerrepository.NewMongoLedgerRepository(cfg),
		customerService,
		ledgervalidator.NewLedgerValidator(cfg.Log),
		publisher,
		m,
		cfg,
	)

	quoter := pricing.NewQuoter(pricing.NewEngine(cfg.Policy.VIPDiscountRatio), catalogService, customerService)

	visitService := visitsservice.NewVisitService(
		visitRepo,
		quoter,
		customerService,
		ledgerService,
		visitsvalidator.NewVisitValidator(cfg.Log),
		publisher,
		cfg,
	)

	bookingService := bookingsservice.NewBookingService(
		bookingsrepository.NewMongoBookingRepository(cfg),
		quoter,
		customerService,
		visitService,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	reportService := reportsservice.NewReportService(reportsrepository.NewMongoReportRepository(cfg), cfg)

	cfg.Log.Info("Back office services initialized", "database", cfg.MongoDatabaseName)

	handlers := []contracts.Handler{
		cataloghandler.NewServiceHandler(catalogService, cfg.Log),
		pricinghandler.NewPricingHandler(quoter, cfg.Log),
		customershandler.NewCustomerHandler(customerService, cfg.Log),
		ledgerhandler.NewLedgerHandler(ledgerService, cfg.Log),
		visitshandler.NewVisitHandler(visitService, cfg.Location, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Location, cfg.Log),
		reportshandler.NewReportHandler(reportService, cfg.Location, cfg.Log),
	}
	sweep := jobs.NewReconcileSweep(customerService, ledgerService, cfg.Log, m)
	return handlers, sweep
}
