package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "spadesk"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultTokenTTL = 12 * time.Hour

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultBusinessTimezone = "Asia/Taipei"

	DefaultReconcileSchedule = "0 3 * * *"

	DefaultLedgerTopic    = "spadesk.ledger"
	DefaultLedgerDLQTopic = "spadesk.ledger.dlq"
	DefaultAuditorGroupID = "spadesk-ledger-auditor"
)

const (
	DefaultVIPDiscountRatio     = 0.5
	DefaultVIPEligibilityVisits = 40
	DefaultVIPPrice             = 20000
	DefaultVIPValidityMonths    = 12
	DefaultMinDepositAmount     = 1000
	DefaultRecentHistoryLimit   = 100
	DefaultRecentHistoryMonths  = 12
)
