package config

// Environment variable names referenced by tests and tooling.
const (
	EnvAppEnv         = "CARDHAVEN_APP_ENV"
	EnvAppPort        = "CARDHAVEN_APP_PORT"
	EnvRedisURL       = "CARDHAVEN_REDIS_URL"
	EnvPricingBaseURL = "CARDHAVEN_PRICING_BASE_URL"
	EnvPricingAPIKey  = "CARDHAVEN_PRICING_API_KEY"
)
