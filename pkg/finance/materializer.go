package finance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// MaterializerStore is the persistence surface used by Materializer.
type MaterializerStore interface {
	TemplateStore
	TransactionStore
	WatermarkStore
}

// Materializer commits due recurring template occurrences as transactions.
type Materializer struct {
	store    MaterializerStore
	locker   Locker
	offsets  OffsetProvider
	nowFn    func() time.Time
	settings serviceSettings
	running  atomic.Bool
}

// TickResult summarizes one processing pass.
type TickResult struct {
	FromDate Date
	ToDate   Date
	Inserted int64
}

// NewMaterializer wires a Materializer.
func NewMaterializer(store MaterializerStore, locker Locker, offsets OffsetProvider, now func() time.Time, options ...ServiceOption) (*Materializer, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if locker == nil {
		return nil, fmt.Errorf("%w: locker dependency is nil", ErrInvalidServiceConfig)
	}
	if offsets == nil {
		return nil, fmt.Errorf("%w: offset provider dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	settings := newServiceSettings(options)
	if settings.horizonCutoff < 0 || settings.horizonCutoff >= 24*time.Hour {
		return nil, fmt.Errorf("%w: horizon cutoff %s must be within a day", ErrInvalidServiceConfig, settings.horizonCutoff)
	}
	if settings.lockTTL <= 0 {
		return nil, fmt.Errorf("%w: lock ttl must be > 0", ErrInvalidServiceConfig)
	}
	return &Materializer{
		store:    store,
		locker:   locker,
		offsets:  offsets,
		nowFn:    now,
		settings: settings,
	}, nil
}

// Tick processes every date between the watermark and the horizon. It returns nil without
// doing anything when a tick is already running in this process or another holder owns
// the lock.
func (materializer *Materializer) Tick(ctx context.Context) error {
	if !materializer.running.CompareAndSwap(false, true) {
		return nil
	}
	defer materializer.running.Store(false)

	acquired, err := materializer.locker.Acquire(ctx, LockRecurringExpenses, materializer.settings.lockTTL)
	if err != nil {
		materializer.settings.alert(ctx, failureAlert(err))
		return err
	}
	if !acquired {
		materializer.settings.logOperation(ctx, OperationLog{
			Operation: operationTick,
			Subject:   LockRecurringExpenses,
			Status:    OperationStatusSkipped,
		})
		return nil
	}

	result, processed, err := materializer.process(ctx)
	entry := OperationLog{
		Operation: operationTick,
		Subject:   LockRecurringExpenses,
		FromDate:  result.FromDate,
		ToDate:    result.ToDate,
		Count:     result.Inserted,
		Error:     err,
	}
	if err == nil && !processed {
		entry.Status = OperationStatusSkipped
	}
	materializer.settings.logOperation(ctx, entry)
	if err != nil {
		materializer.settings.alert(ctx, failureAlert(err))
		return err
	}
	return nil
}

func (materializer *Materializer) process(ctx context.Context) (TickResult, bool, error) {
	offset, err := materializer.offsets.UTCOffset(ctx)
	if err != nil {
		return TickResult{}, false, WrapError("materializer", "settings", "offset", err)
	}
	horizon := HorizonDate(offset.Local(materializer.nowFn()), materializer.settings.horizonCutoff)

	watermark, err := materializer.store.LoadWatermark(ctx)
	if err != nil {
		return TickResult{}, false, WrapError("materializer", "watermark", "load", err)
	}
	start := horizon
	if !watermark.IsZero() {
		start = watermark.AddDays(1)
	}
	result := TickResult{FromDate: start, ToDate: horizon}
	if start.After(horizon) {
		return result, false, nil
	}

	for _, date := range DateRange(start, horizon) {
		inserted, err := materializer.commitDate(ctx, date)
		if err != nil {
			return result, false, err
		}
		result.Inserted += inserted
	}

	if err := materializer.store.SaveWatermark(ctx, horizon); err != nil {
		return result, false, WrapError("materializer", "watermark", "save", err)
	}
	return result, true, nil
}

func (materializer *Materializer) commitDate(ctx context.Context, date Date) (int64, error) {
	templates, err := materializer.store.ListTemplatesDue(ctx, DueQueryFor(date))
	if err != nil {
		return 0, WrapError("materializer", date.String(), "list_due", err)
	}
	if len(templates) == 0 {
		return 0, nil
	}
	inputs := make([]TransactionInput, 0, len(templates))
	for _, template := range templates {
		input, err := NewTransactionInput(
			SourceRecurring,
			RecurringIdempotencyKey(template.ID, date),
			template.CategoryID,
			template.AmountCents,
			date,
			template.Description,
		)
		if err != nil {
			return 0, WrapError("materializer", template.ID.String(), "build", err)
		}
		inputs = append(inputs, input)
	}
	inserted, err := materializer.store.InsertTransactionsIgnoringConflicts(ctx, inputs)
	if err != nil {
		return 0, WrapError("materializer", date.String(), "insert", err)
	}
	return inserted, nil
}

func failureAlert(err error) string {
	return fmt.Sprintf("Recurring expenses processor failed: %v", err)
}
