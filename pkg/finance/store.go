package finance

import (
	"context"
	"time"
)

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, input CategoryInput) (Category, error)
	GetCategory(ctx context.Context, categoryID CategoryID) (Category, error)
	// FindCategoryByName matches case-insensitively and returns ErrUnknownCategory when absent.
	FindCategoryByName(ctx context.Context, name string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, categoryID CategoryID, patch CategoryPatch) (Category, error)
	DeleteCategory(ctx context.Context, categoryID CategoryID) error
}

// TemplateStore persists recurring templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, input RecurringTemplateInput) (RecurringTemplate, error)
	DeleteTemplate(ctx context.Context, templateID TemplateID) error
	// ListTemplates returns every template ordered by day of month, anchor date, then id.
	ListTemplates(ctx context.Context) ([]RecurringTemplate, error)
	ListTemplatesDue(ctx context.Context, query DueQuery) ([]RecurringTemplate, error)
}

// TransactionStore persists transactions.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, input TransactionInput) (Transaction, error)
	// InsertTransactionsIgnoringConflicts inserts rows, skipping any whose (source, key) exists,
	// and returns the number of rows written.
	InsertTransactionsIgnoringConflicts(ctx context.Context, inputs []TransactionInput) (int64, error)
	GetTransaction(ctx context.Context, transactionID TransactionID) (Transaction, error)
	GetTransactionByKey(ctx context.Context, source Source, key IdempotencyKey) (Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) (TransactionPage, error)
	// ExistingKeys returns the subset of keys already committed under source.
	ExistingKeys(ctx context.Context, source Source, keys []IdempotencyKey) (map[IdempotencyKey]struct{}, error)
	UpdateTransaction(ctx context.Context, transactionID TransactionID, patch TransactionPatch) (Transaction, error)
	UpdateTransactionByKey(ctx context.Context, source Source, key IdempotencyKey, patch TransactionPatch) (Transaction, error)
	DeleteTransaction(ctx context.Context, transactionID TransactionID) error
	DeleteTransactionByKey(ctx context.Context, source Source, key IdempotencyKey) error
}

// WatermarkStore persists the last fully processed date.
type WatermarkStore interface {
	// LoadWatermark returns the zero Date when nothing was processed yet.
	LoadWatermark(ctx context.Context) (Date, error)
	SaveWatermark(ctx context.Context, processed Date) error
}

// SettingsStore persists the singleton settings row.
type SettingsStore interface {
	// LoadUTCOffset returns ok=false when no offset was stored yet.
	LoadUTCOffset(ctx context.Context) (offset string, ok bool, err error)
	SaveUTCOffset(ctx context.Context, offset string) error
}

// LockStore performs the atomic conditional upsert behind JobLocker.
type LockStore interface {
	// TryAcquireLock writes the claim only when the row is absent or expired at claim.NowUnix.
	TryAcquireLock(ctx context.Context, claim LockClaim) (bool, error)
}

// Store is the persistence contract used by the finance services.
type Store interface {
	CategoryStore
	TemplateStore
	TransactionStore
	WatermarkStore
	SettingsStore
	LockStore
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	Ping(ctx context.Context) error
}

// LockClaim is a single acquisition attempt.
type LockClaim struct {
	Name      string
	Holder    string
	NowUnix   int64
	UntilUnix int64
}

// Locker grants named TTL locks.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// Alerter delivers best-effort operator notifications.
type Alerter interface {
	Alert(ctx context.Context, message string)
}

// OffsetProvider supplies the configured UTC offset.
type OffsetProvider interface {
	UTCOffset(ctx context.Context) (UTCOffset, error)
}
