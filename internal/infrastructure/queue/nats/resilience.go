package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
	"github.com/nqhuy/admissions-assistant/internal/infrastructure/resilience"
)

// transientConnErrs are the client errors a reconnecting connection can
// recover from. Anything else is permanent for this publish.
var transientConnErrs = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
}

func isTransient(err error) bool {
	if resilience.IsCircuitOpen(err) {
		return true
	}
	for _, target := range transientConnErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// classifyNATSError feeds the retry executor: transient connection
// errors retry and count against the breaker, caller aborts do neither,
// anything else only counts.
func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case isTransient(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// publishError is what the queue hands back to the use case: transient
// failures are tagged ErrTemporary so a broker blip is distinguishable
// from a bad event.
func publishError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if isTransient(err) {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
