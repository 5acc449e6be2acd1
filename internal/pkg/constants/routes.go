package constants

// Static route constants
const (
	APIRoute            = "/api"
	WebhookPaymentsPath = "/webhooks/payments/:provider"
	MetricsRoute        = "/metrics"
)
