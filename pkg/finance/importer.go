package finance

import (
	"context"
	"errors"
	"fmt"
)

// ImportAction reports what an import did with one item.
type ImportAction string

const (
	ImportActionCreated ImportAction = "created"
	ImportActionUpdated ImportAction = "updated"
)

// ImportItem is one agent-submitted transaction.
// HasDescription distinguishes an absent description from an explicit null.
type ImportItem struct {
	IdempotencyKey string
	AmountCents    AmountCents
	Date           Date
	CategoryName   string
	Description    *string
	HasDescription bool
}

// ImportResult describes the outcome for one item.
type ImportResult struct {
	IdempotencyKey IdempotencyKey
	Action         ImportAction
	Transaction    Transaction
	Category       Category
}

// ImportService upserts agent transactions keyed by their idempotency key.
type ImportService struct {
	store    Store
	settings serviceSettings
}

// NewImportService wires an ImportService.
func NewImportService(store Store, options ...ServiceOption) (*ImportService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	return &ImportService{store: store, settings: newServiceSettings(options)}, nil
}

type preparedImport struct {
	key          IdempotencyKey
	categoryName string
	item         ImportItem
}

// Import applies the batch atomically: either every item is created or updated, or none is.
func (service *ImportService) Import(ctx context.Context, items []ImportItem) ([]ImportResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one transaction is required", ErrEmptyImport)
	}
	prepared := make([]preparedImport, 0, len(items))
	for _, item := range items {
		key, err := NewIdempotencyKey(item.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		categoryName, err := CollapseCategoryName(item.CategoryName)
		if err != nil {
			return nil, err
		}
		if err := item.AmountCents.Validate(); err != nil {
			return nil, err
		}
		if item.Date.IsZero() {
			return nil, fmt.Errorf("%w: date is required for %s", ErrInvalidDate, key)
		}
		if _, err := NormalizeDescription(item.Description); err != nil {
			return nil, err
		}
		prepared = append(prepared, preparedImport{key: key, categoryName: categoryName, item: item})
	}

	results := make([]ImportResult, 0, len(prepared))
	err := service.store.WithTx(ctx, func(ctx context.Context, txStore Store) error {
		results = results[:0]
		for _, entry := range prepared {
			result, err := importOne(ctx, txStore, entry)
			service.settings.logOperation(ctx, OperationLog{
				Operation:      operationImportTransaction,
				Subject:        string(result.Action),
				IdempotencyKey: entry.key,
				FromDate:       entry.item.Date,
				Error:          err,
			})
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func importOne(ctx context.Context, store Store, entry preparedImport) (ImportResult, error) {
	category, err := findOrCreateCategory(ctx, store, entry.categoryName)
	if err != nil {
		return ImportResult{}, err
	}
	input, err := NewTransactionInput(SourceOpenClaw, entry.key, category.ID, entry.item.AmountCents, entry.item.Date, entry.item.Description)
	if err != nil {
		return ImportResult{}, err
	}
	inserted, err := store.InsertTransactionsIgnoringConflicts(ctx, []TransactionInput{input})
	if err != nil {
		return ImportResult{}, err
	}
	if inserted == 1 {
		created, err := store.GetTransactionByKey(ctx, SourceOpenClaw, entry.key)
		if err != nil {
			return ImportResult{}, err
		}
		return ImportResult{IdempotencyKey: entry.key, Action: ImportActionCreated, Transaction: created, Category: category}, nil
	}

	patch := TransactionPatch{
		CategoryID:  &category.ID,
		AmountCents: &input.AmountCents,
		Date:        &input.Date,
	}
	if entry.item.HasDescription {
		patch.Description = input.Description
		patch.ClearDescription = input.Description == nil
	}
	updated, err := store.UpdateTransactionByKey(ctx, SourceOpenClaw, entry.key, patch)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{IdempotencyKey: entry.key, Action: ImportActionUpdated, Transaction: updated, Category: category}, nil
}

func findOrCreateCategory(ctx context.Context, store CategoryStore, name string) (Category, error) {
	existing, err := store.FindCategoryByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUnknownCategory) {
		return Category{}, err
	}
	input, err := NewCategoryInput(name, "", "")
	if err != nil {
		return Category{}, err
	}
	return store.CreateCategory(ctx, input)
}

// Get returns an agent transaction by key.
func (service *ImportService) Get(ctx context.Context, rawKey string) (Transaction, error) {
	key, err := NewIdempotencyKey(rawKey)
	if err != nil {
		return Transaction{}, err
	}
	return service.store.GetTransactionByKey(ctx, SourceOpenClaw, key)
}

// Remove deletes an agent transaction by key.
func (service *ImportService) Remove(ctx context.Context, rawKey string) error {
	key, err := NewIdempotencyKey(rawKey)
	if err != nil {
		return err
	}
	return service.store.DeleteTransactionByKey(ctx, SourceOpenClaw, key)
}

// ListCategories returns categories ordered by name.
func (service *ImportService) ListCategories(ctx context.Context) ([]Category, error) {
	return service.store.ListCategories(ctx)
}
