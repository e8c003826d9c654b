package finance

import (
	"context"
	"time"
)

// ServiceOption configures the finance services.
type ServiceOption func(*serviceSettings)

type serviceSettings struct {
	logger        OperationLogger
	alerter       Alerter
	horizonCutoff time.Duration
	lockTTL       time.Duration
	instanceID    string
}

func newServiceSettings(options []ServiceOption) serviceSettings {
	settings := serviceSettings{
		horizonCutoff: defaultHorizonCutoff,
		lockTTL:       defaultRecurringLockTTL,
	}
	for _, option := range options {
		if option != nil {
			option(&settings)
		}
	}
	return settings
}

// OperationLogger records domain-level events emitted by service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing finance operation.
type OperationLog struct {
	Operation      string
	Subject        string
	IdempotencyKey IdempotencyKey
	FromDate       Date
	ToDate         Date
	Count          int64
	Status         string
	Error          error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(settings *serviceSettings) {
		settings.logger = logger
	}
}

// WithAlerter wires the notifier used when a scheduled job fails.
func WithAlerter(alerter Alerter) ServiceOption {
	return func(settings *serviceSettings) {
		settings.alerter = alerter
	}
}

// WithHorizonCutoff overrides the local time of day after which today becomes processable.
func WithHorizonCutoff(cutoff time.Duration) ServiceOption {
	return func(settings *serviceSettings) {
		settings.horizonCutoff = cutoff
	}
}

// WithLockTTL overrides the materializer lock lease.
func WithLockTTL(ttl time.Duration) ServiceOption {
	return func(settings *serviceSettings) {
		settings.lockTTL = ttl
	}
}

// WithInstanceID overrides the holder tag written into job locks.
func WithInstanceID(instanceID string) ServiceOption {
	return func(settings *serviceSettings) {
		settings.instanceID = instanceID
	}
}

func (settings serviceSettings) logOperation(ctx context.Context, entry OperationLog) {
	if settings.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = OperationStatusError
		} else {
			entry.Status = OperationStatusOK
		}
	}
	settings.logger.LogOperation(ctx, entry)
}

func (settings serviceSettings) alert(ctx context.Context, message string) {
	if settings.alerter == nil {
		return
	}
	settings.alerter.Alert(ctx, message)
}
