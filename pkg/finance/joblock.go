package finance

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// JobLocker grants named mutual exclusion leases that expire after a TTL.
// Locks are never released explicitly.
type JobLocker struct {
	store    LockStore
	nowFn    func() time.Time
	holder   string
	settings serviceSettings
}

// NewJobLocker wires a JobLocker.
func NewJobLocker(store LockStore, now func() time.Time, options ...ServiceOption) (*JobLocker, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: lock store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	settings := newServiceSettings(options)
	return &JobLocker{
		store:    store,
		nowFn:    now,
		holder:   ResolveInstanceID(settings.instanceID),
		settings: settings,
	}, nil
}

// Holder returns the tag written into lock rows owned by this process.
func (locker *JobLocker) Holder() string {
	return locker.holder
}

// Acquire claims name for ttl when the lock is free or expired.
func (locker *JobLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return false, fmt.Errorf("%w: name must be non-empty", ErrInvalidLockName)
	}
	if ttl <= 0 {
		return false, fmt.Errorf("%w: ttl must be > 0", ErrInvalidLockTTL)
	}
	nowUnix := locker.nowFn().Unix()
	claim := LockClaim{
		Name:      trimmedName,
		Holder:    locker.holder,
		NowUnix:   nowUnix,
		UntilUnix: nowUnix + ttlSeconds(ttl),
	}
	acquired, err := locker.store.TryAcquireLock(ctx, claim)
	if err != nil {
		err = WrapError("lock", trimmedName, "acquire", err)
	}
	status := ""
	if err == nil && !acquired {
		status = OperationStatusSkipped
	}
	locker.settings.logOperation(ctx, OperationLog{
		Operation: operationAcquireLock,
		Subject:   trimmedName,
		Status:    status,
		Error:     err,
	})
	return acquired, err
}

// ResolveInstanceID picks the lock holder tag: explicit value, then INSTANCE_ID, then hostname:pid.
func ResolveInstanceID(explicit string) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return trimmed
	}
	if fromEnv := strings.TrimSpace(os.Getenv(envInstanceID)); fromEnv != "" {
		return fromEnv
	}
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s:%d", hostname, os.Getpid())
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		seconds++
	}
	return seconds
}
