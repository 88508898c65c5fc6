package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret = "JWT_SECRET"
	EnvTokenTTL  = "TOKEN_TTL"

	EnvRedisURL = "REDIS_URL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBusinessTimezone = "BUSINESS_TIMEZONE"
	EnvPolicyFile       = "POLICY_FILE"

	EnvVIPDiscountRatio     = "VIP_DISCOUNT_RATIO"
	EnvVIPEligibilityVisits = "VIP_ELIGIBILITY_VISITS"
	EnvVIPPrice             = "VIP_PRICE"
	EnvVIPValidityMonths    = "VIP_VALIDITY_MONTHS"
	EnvMinDepositAmount     = "MIN_DEPOSIT_AMOUNT"
	EnvRecentHistoryLimit   = "RECENT_HISTORY_LIMIT"
	EnvRecentHistoryMonths  = "RECENT_HISTORY_MONTHS"

	EnvReconcileSchedule = "RECONCILE_SCHEDULE"

	EnvEventsEnabled  = "EVENTS_ENABLED"
	EnvLedgerTopic    = "LEDGER_TOPIC"
	EnvLedgerDLQTopic = "LEDGER_DLQ_TOPIC"
	EnvAuditorGroupID = "AUDITOR_GROUP_ID"
)
