// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Gateway metrics
	IncPaymentIntentCreated()
	IncIdempotentReplay()

	// Webhook metrics
	IncWebhookEvent(eventType string, handled bool)
	IncWebhookSignatureFailure()

	// Bridge metrics
	IncKeyCreated()
	IncChallengeSigned(status string) // status: "signed", "arg_err", "no_key", "bio_error", "sign_err"
}
