package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PaymentIntentsCreated    uint64
	IdempotentReplays        uint64
	WebhookEventsHandled     uint64
	WebhookEventsIgnored     uint64
	WebhookSignatureFailures uint64
	KeysCreated              uint64
	ChallengesByStatus       map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	paymentIntentsCreated    uint64
	idempotentReplays        uint64
	webhookEventsHandled     uint64
	webhookEventsIgnored     uint64
	webhookSignatureFailures uint64
	keysCreated              uint64

	mu                 sync.Mutex
	challengesByStatus map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{challengesByStatus: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	byStatus := make(map[string]uint64, len(m.challengesByStatus))
	for k, v := range m.challengesByStatus {
		byStatus[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		PaymentIntentsCreated:    atomic.LoadUint64(&m.paymentIntentsCreated),
		IdempotentReplays:        atomic.LoadUint64(&m.idempotentReplays),
		WebhookEventsHandled:     atomic.LoadUint64(&m.webhookEventsHandled),
		WebhookEventsIgnored:     atomic.LoadUint64(&m.webhookEventsIgnored),
		WebhookSignatureFailures: atomic.LoadUint64(&m.webhookSignatureFailures),
		KeysCreated:              atomic.LoadUint64(&m.keysCreated),
		ChallengesByStatus:       byStatus,
	}
}

// IncPaymentIntentCreated increments the payment intent counter.
func (m *InMemoryRecorder) IncPaymentIntentCreated() {
	atomic.AddUint64(&m.paymentIntentsCreated, 1)
}

// IncIdempotentReplay increments the replay counter.
func (m *InMemoryRecorder) IncIdempotentReplay() {
	atomic.AddUint64(&m.idempotentReplays, 1)
}

// IncWebhookEvent increments the handled or ignored webhook counter.
func (m *InMemoryRecorder) IncWebhookEvent(eventType string, handled bool) {
	if handled {
		atomic.AddUint64(&m.webhookEventsHandled, 1)
	} else {
		atomic.AddUint64(&m.webhookEventsIgnored, 1)
	}
}

// IncWebhookSignatureFailure increments the signature failure counter.
func (m *InMemoryRecorder) IncWebhookSignatureFailure() {
	atomic.AddUint64(&m.webhookSignatureFailures, 1)
}

// IncKeyCreated increments the key creation counter.
func (m *InMemoryRecorder) IncKeyCreated() {
	atomic.AddUint64(&m.keysCreated, 1)
}

// IncChallengeSigned increments the per-status challenge counter.
func (m *InMemoryRecorder) IncChallengeSigned(status string) {
	m.mu.Lock()
	m.challengesByStatus[status]++
	m.mu.Unlock()
}
