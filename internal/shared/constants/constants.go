package constants

const (
	EnvProduction = "production"
	EnvTest       = "test"

	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXSignature    = "X-Signature"

	// ContextKeyRequestID is the gin context key holding the request ID.
	ContextKeyRequestID = "request_id"

	// Database table names
	TablePlans                  = "plans"
	TableSubscriptions          = "subscriptions"
	TableSubscriptionHistories  = "subscription_histories"
	TablePayments               = "payments"
	TableProcessedGatewayEvents = "processed_gateway_events"
)
