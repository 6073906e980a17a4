package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPaymentIntentCreated is a no-op.
func (n *NoopRecorder) IncPaymentIntentCreated() {}

// IncIdempotentReplay is a no-op.
func (n *NoopRecorder) IncIdempotentReplay() {}

// IncWebhookEvent is a no-op.
func (n *NoopRecorder) IncWebhookEvent(eventType string, handled bool) {}

// IncWebhookSignatureFailure is a no-op.
func (n *NoopRecorder) IncWebhookSignatureFailure() {}

// IncKeyCreated is a no-op.
func (n *NoopRecorder) IncKeyCreated() {}

// IncChallengeSigned is a no-op.
func (n *NoopRecorder) IncChallengeSigned(status string) {}
