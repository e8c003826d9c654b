package finance

import (
	"context"
	"fmt"
	"time"
)

// RecurringStore is the persistence surface used by RecurringService.
type RecurringStore interface {
	CategoryStore
	TemplateStore
	TransactionStore
}

// RecurringService manages templates and projects them onto months.
type RecurringService struct {
	store    RecurringStore
	offsets  OffsetProvider
	nowFn    func() time.Time
	settings serviceSettings
}

// NewRecurringService wires a RecurringService.
func NewRecurringService(store RecurringStore, offsets OffsetProvider, now func() time.Time, options ...ServiceOption) (*RecurringService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if offsets == nil {
		return nil, fmt.Errorf("%w: offset provider dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	return &RecurringService{
		store:    store,
		offsets:  offsets,
		nowFn:    now,
		settings: newServiceSettings(options),
	}, nil
}

// Create stores a template after checking that its category exists.
func (service *RecurringService) Create(ctx context.Context, input RecurringTemplateInput) (RecurringTemplate, error) {
	template, err := service.create(ctx, input)
	service.settings.logOperation(ctx, OperationLog{
		Operation: operationCreateTemplate,
		Subject:   template.ID.String(),
		FromDate:  input.AnchorDate,
		Error:     err,
	})
	return template, err
}

func (service *RecurringService) create(ctx context.Context, input RecurringTemplateInput) (RecurringTemplate, error) {
	if _, err := service.store.GetCategory(ctx, input.CategoryID); err != nil {
		return RecurringTemplate{}, err
	}
	return service.store.CreateTemplate(ctx, input)
}

// Remove deletes a template. Transactions it already produced are kept.
func (service *RecurringService) Remove(ctx context.Context, templateID TemplateID) error {
	err := service.store.DeleteTemplate(ctx, templateID)
	service.settings.logOperation(ctx, OperationLog{
		Operation: operationRemoveTemplate,
		Subject:   templateID.String(),
		Error:     err,
	})
	return err
}

// ListForMonth projects every template onto month, or onto the current local month when
// month is nil, and flags occurrences that were already committed.
func (service *RecurringService) ListForMonth(ctx context.Context, month *YearMonth) ([]Occurrence, error) {
	targetMonth, err := service.resolveMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	templates, err := service.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	occurrences := make([]Occurrence, 0, len(templates))
	keys := make([]IdempotencyKey, 0, len(templates))
	for _, template := range templates {
		scheduled, ok := ScheduledDate(template, targetMonth)
		if !ok {
			continue
		}
		key := RecurringIdempotencyKey(template.ID, scheduled)
		keys = append(keys, key)
		occurrences = append(occurrences, Occurrence{
			Template:       template,
			ScheduledDate:  scheduled,
			IdempotencyKey: key,
		})
	}
	if len(keys) == 0 {
		return occurrences, nil
	}
	committed, err := service.store.ExistingKeys(ctx, SourceRecurring, keys)
	if err != nil {
		return nil, err
	}
	for index := range occurrences {
		_, occurrences[index].Committed = committed[occurrences[index].IdempotencyKey]
	}
	return occurrences, nil
}

func (service *RecurringService) resolveMonth(ctx context.Context, month *YearMonth) (YearMonth, error) {
	if month != nil {
		return *month, nil
	}
	offset, err := service.offsets.UTCOffset(ctx)
	if err != nil {
		return YearMonth{}, err
	}
	return DateOf(offset.Local(service.nowFn())).YearMonth(), nil
}
