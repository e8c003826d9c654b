package finance

import "time"

const (
	operationTick              = "recurring.tick"
	operationCreateTemplate    = "recurring.create"
	operationRemoveTemplate    = "recurring.remove"
	operationImportTransaction = "import.transaction"
	operationAcquireLock       = "lock.acquire"

	// OperationStatusOK marks a completed operation.
	OperationStatusOK = "ok"
	// OperationStatusError marks a failed operation.
	OperationStatusError = "error"
	// OperationStatusSkipped marks an operation that found nothing to do or lost a lock race.
	OperationStatusSkipped = "skipped"

	idempotencyKeyDelimiter = ":"
	recurringKeyPrefix      = "recurring"

	// LockRecurringExpenses names the materializer job lock.
	LockRecurringExpenses = "recurring-expenses"
	// LockSQLiteBackup names the backup job lock.
	LockSQLiteBackup = "sqlite-backup"

	defaultRecurringLockTTL = 30 * time.Minute
	defaultHorizonCutoff    = 23*time.Hour + 55*time.Minute
	defaultUTCOffset        = "+03:00"
	defaultCategoryColor    = "#3b82f6"

	maxUTCOffsetMinutes    = 14 * 60
	maxCategoryNameLength  = 100
	maxDescriptionLength   = 255
	maxIdempotencyKeyLen   = 255
	defaultTransactionPage = 100
	maxTransactionPage     = 500
	maxAbsAmountCents      = 999_999_999_999

	dateLayout      = "2006-01-02"
	yearMonthLayout = "2006-01"

	envInstanceID = "INSTANCE_ID"
)
