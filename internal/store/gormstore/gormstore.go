package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	singletonRowID              = 1
	existingKeysChunkSize       = 500
	pgUniqueViolationCode       = "23505"
	pgForeignKeyViolationCode   = "23503"
	sqliteConstraintCode        = 19
	sqliteForeignKeyCode        = 787
	errorOperationStore         = "store"
	errorSubjectCategory        = "category"
	errorSubjectTemplate        = "recurring_expense"
	errorSubjectTransaction     = "transaction"
	errorSubjectWatermark       = "watermark"
	errorSubjectSettings        = "settings"
	errorSubjectLock            = "job_lock"
	errorCodeCreate             = "create"
	errorCodeDelete             = "delete"
	errorCodeGet                = "get"
	errorCodeInsert             = "insert"
	errorCodeInvalid            = "invalid"
	errorCodeList               = "list"
	errorCodeCount              = "count"
	errorCodeLookup             = "lookup"
	errorCodeUpdate             = "update"
	errorCodeUpsert             = "upsert"
	errorCodePing               = "ping"
	orderTemplates              = "day_of_month ASC, date ASC, id ASC"
	orderTransactionsNewest     = "date DESC, created_at DESC, id DESC"
	watermarkMonotonicUpdate    = "(recurring_processing_state.last_processed_date IS NULL OR recurring_processing_state.last_processed_date < excluded.last_processed_date)"
	jobLockExpiredCondition     = "job_locks.locked_until <= ?"
	categoryNameCaseInsensitive = "LOWER(name) = LOWER(?)"
)

// Store implements finance.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore finance.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// Ping checks database connectivity.
func (store *Store) Ping(ctx context.Context) error {
	sqlDB, err := store.db.DB()
	if err != nil {
		return wrapStoreError("database", errorCodePing, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return wrapStoreError("database", errorCodePing, err)
	}
	return nil
}

func (store *Store) CreateCategory(ctx context.Context, input finance.CategoryInput) (finance.Category, error) {
	model := Category{Name: input.Name, Type: string(input.Type), Color: input.Color}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeCreate, err)
	}
	return mapCategory(model)
}

func (store *Store) GetCategory(ctx context.Context, categoryID finance.CategoryID) (finance.Category, error) {
	var model Category
	err := store.db.WithContext(ctx).Where("id = ?", categoryID.String()).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeGet, finance.ErrUnknownCategory)
		}
		return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeGet, err)
	}
	return mapCategory(model)
}

func (store *Store) FindCategoryByName(ctx context.Context, name string) (finance.Category, error) {
	var model Category
	err := store.db.WithContext(ctx).
		Where(categoryNameCaseInsensitive, name).
		Order("created_at ASC").
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeLookup, finance.ErrUnknownCategory)
		}
		return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeLookup, err)
	}
	return mapCategory(model)
}

func (store *Store) ListCategories(ctx context.Context) ([]finance.Category, error) {
	var rows []Category
	if err := store.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectCategory, errorCodeList, err)
	}
	categories := make([]finance.Category, 0, len(rows))
	for _, row := range rows {
		category, err := mapCategory(row)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (store *Store) UpdateCategory(ctx context.Context, categoryID finance.CategoryID, patch finance.CategoryPatch) (finance.Category, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Type != nil {
		updates["type"] = string(*patch.Type)
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	if len(updates) > 0 {
		result := store.db.WithContext(ctx).Model(&Category{}).Where("id = ?", categoryID.String()).Updates(updates)
		if result.Error != nil {
			return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeUpdate, result.Error)
		}
		if result.RowsAffected == 0 {
			return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeUpdate, finance.ErrUnknownCategory)
		}
	}
	return store.GetCategory(ctx, categoryID)
}

func (store *Store) DeleteCategory(ctx context.Context, categoryID finance.CategoryID) error {
	result := store.db.WithContext(ctx).Where("id = ?", categoryID.String()).Delete(&Category{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectCategory, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectCategory, errorCodeDelete, finance.ErrUnknownCategory)
	}
	return nil
}

func (store *Store) CreateTemplate(ctx context.Context, input finance.RecurringTemplateInput) (finance.RecurringTemplate, error) {
	model := RecurringExpense{
		CategoryID:  input.CategoryID.String(),
		AmountCents: input.AmountCents.Int64(),
		DayOfMonth:  input.DayOfMonth,
		Date:        input.AnchorDate.String(),
		Description: input.Description,
	}
	err := store.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error
	if isForeignKeyViolation(err) {
		return finance.RecurringTemplate{}, wrapStoreError(errorSubjectTemplate, errorCodeCreate, finance.ErrUnknownCategory)
	}
	if err != nil {
		return finance.RecurringTemplate{}, wrapStoreError(errorSubjectTemplate, errorCodeCreate, err)
	}
	return mapTemplate(model)
}

func (store *Store) DeleteTemplate(ctx context.Context, templateID finance.TemplateID) error {
	result := store.db.WithContext(ctx).Where("id = ?", templateID.String()).Delete(&RecurringExpense{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectTemplate, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectTemplate, errorCodeDelete, finance.ErrUnknownTemplate)
	}
	return nil
}

func (store *Store) ListTemplates(ctx context.Context) ([]finance.RecurringTemplate, error) {
	var rows []RecurringExpense
	if err := store.db.WithContext(ctx).Order(orderTemplates).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectTemplate, errorCodeList, err)
	}
	return mapTemplates(rows)
}

// ListTemplatesDue selects templates anchored on or before the query date whose day matches it,
// or on a month's last day, whose day is that day or later.
func (store *Store) ListTemplatesDue(ctx context.Context, query finance.DueQuery) ([]finance.RecurringTemplate, error) {
	statement := store.db.WithContext(ctx).Where("date <= ?", query.Date.String())
	if query.IncludeLaterDays {
		statement = statement.Where("day_of_month >= ?", query.DayOfMonth)
	} else {
		statement = statement.Where("day_of_month = ?", query.DayOfMonth)
	}
	var rows []RecurringExpense
	if err := statement.Order(orderTemplates).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectTemplate, errorCodeList, err)
	}
	return mapTemplates(rows)
}

func (store *Store) CreateTransaction(ctx context.Context, input finance.TransactionInput) (finance.Transaction, error) {
	model := transactionModel(input)
	err := store.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error
	if err != nil {
		return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeCreate, translateWriteError(err))
	}
	return mapTransaction(model)
}

// InsertTransactionsIgnoringConflicts relies on the (source, idempotency_key) unique index.
func (store *Store) InsertTransactionsIgnoringConflicts(ctx context.Context, inputs []finance.TransactionInput) (int64, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	models := make([]Transaction, 0, len(inputs))
	for _, input := range inputs {
		models = append(models, transactionModel(input))
	}
	result := store.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(&models)
	if result.Error != nil {
		return 0, wrapStoreError(errorSubjectTransaction, errorCodeInsert, translateWriteError(result.Error))
	}
	return result.RowsAffected, nil
}

func (store *Store) GetTransaction(ctx context.Context, transactionID finance.TransactionID) (finance.Transaction, error) {
	return takeTransaction(store.db.WithContext(ctx).Where("id = ?", transactionID.String()))
}

func (store *Store) GetTransactionByKey(ctx context.Context, source finance.Source, key finance.IdempotencyKey) (finance.Transaction, error) {
	return takeTransaction(store.db.WithContext(ctx).Where("source = ? AND idempotency_key = ?", string(source), key.String()))
}

func takeTransaction(statement *gorm.DB) (finance.Transaction, error) {
	var model Transaction
	if err := statement.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, finance.ErrUnknownTransaction)
		}
		return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeGet, err)
	}
	return mapTransaction(model)
}

func (store *Store) ListTransactions(ctx context.Context, filter finance.TransactionFilter) (finance.TransactionPage, error) {
	filtered := func() *gorm.DB {
		statement := store.db.WithContext(ctx).Model(&Transaction{})
		if filter.From != nil {
			statement = statement.Where("date >= ?", filter.From.String())
		}
		if filter.To != nil {
			statement = statement.Where("date <= ?", filter.To.String())
		}
		if filter.CategoryID != nil {
			statement = statement.Where("category_id = ?", filter.CategoryID.String())
		}
		if filter.Source != nil {
			statement = statement.Where("source = ?", string(*filter.Source))
		}
		return statement
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return finance.TransactionPage{}, wrapStoreError(errorSubjectTransaction, errorCodeCount, err)
	}
	var rows []Transaction
	err := filtered().
		Order(orderTransactionsNewest).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&rows).Error
	if err != nil {
		return finance.TransactionPage{}, wrapStoreError(errorSubjectTransaction, errorCodeList, err)
	}
	items := make([]finance.Transaction, 0, len(rows))
	for _, row := range rows {
		transaction, err := mapTransaction(row)
		if err != nil {
			return finance.TransactionPage{}, err
		}
		items = append(items, transaction)
	}
	return finance.TransactionPage{Items: items, Total: total}, nil
}

func (store *Store) ExistingKeys(ctx context.Context, source finance.Source, keys []finance.IdempotencyKey) (map[finance.IdempotencyKey]struct{}, error) {
	existing := make(map[finance.IdempotencyKey]struct{}, len(keys))
	for start := 0; start < len(keys); start += existingKeysChunkSize {
		chunk := keys[start:min(start+existingKeysChunkSize, len(keys))]
		rawKeys := make([]string, 0, len(chunk))
		for _, key := range chunk {
			rawKeys = append(rawKeys, key.String())
		}
		var found []string
		err := store.db.WithContext(ctx).
			Model(&Transaction{}).
			Where("source = ? AND idempotency_key IN ?", string(source), rawKeys).
			Pluck("idempotency_key", &found).Error
		if err != nil {
			return nil, wrapStoreError(errorSubjectTransaction, errorCodeLookup, err)
		}
		for _, raw := range found {
			key, err := finance.NewIdempotencyKey(raw)
			if err != nil {
				return nil, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
			}
			existing[key] = struct{}{}
		}
	}
	return existing, nil
}

func (store *Store) UpdateTransaction(ctx context.Context, transactionID finance.TransactionID, patch finance.TransactionPatch) (finance.Transaction, error) {
	statement := store.db.WithContext(ctx).Model(&Transaction{}).Where("id = ?", transactionID.String())
	if err := applyTransactionPatch(statement, patch); err != nil {
		return finance.Transaction{}, err
	}
	return store.GetTransaction(ctx, transactionID)
}

func (store *Store) UpdateTransactionByKey(ctx context.Context, source finance.Source, key finance.IdempotencyKey, patch finance.TransactionPatch) (finance.Transaction, error) {
	statement := store.db.WithContext(ctx).Model(&Transaction{}).Where("source = ? AND idempotency_key = ?", string(source), key.String())
	if err := applyTransactionPatch(statement, patch); err != nil {
		return finance.Transaction{}, err
	}
	return store.GetTransactionByKey(ctx, source, key)
}

func applyTransactionPatch(statement *gorm.DB, patch finance.TransactionPatch) error {
	updates := map[string]any{}
	if patch.CategoryID != nil {
		updates["category_id"] = patch.CategoryID.String()
	}
	if patch.AmountCents != nil {
		updates["amount_cents"] = patch.AmountCents.Int64()
	}
	if patch.Date != nil {
		updates["date"] = patch.Date.String()
	}
	if patch.ClearDescription {
		updates["description"] = nil
	} else if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if len(updates) == 0 {
		return nil
	}
	result := statement.Updates(updates)
	if result.Error != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdate, translateWriteError(result.Error))
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectTransaction, errorCodeUpdate, finance.ErrUnknownTransaction)
	}
	return nil
}

func (store *Store) DeleteTransaction(ctx context.Context, transactionID finance.TransactionID) error {
	return deleteTransactions(store.db.WithContext(ctx).Where("id = ?", transactionID.String()))
}

func (store *Store) DeleteTransactionByKey(ctx context.Context, source finance.Source, key finance.IdempotencyKey) error {
	return deleteTransactions(store.db.WithContext(ctx).Where("source = ? AND idempotency_key = ?", string(source), key.String()))
}

func deleteTransactions(statement *gorm.DB) error {
	result := statement.Delete(&Transaction{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectTransaction, errorCodeDelete, finance.ErrUnknownTransaction)
	}
	return nil
}

func (store *Store) LoadWatermark(ctx context.Context) (finance.Date, error) {
	var model RecurringProcessingState
	err := store.db.WithContext(ctx).Where("id = ?", singletonRowID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return finance.Date{}, nil
	}
	if err != nil {
		return finance.Date{}, wrapStoreError(errorSubjectWatermark, errorCodeGet, err)
	}
	if model.LastProcessedDate == nil || *model.LastProcessedDate == "" {
		return finance.Date{}, nil
	}
	watermark, err := finance.ParseDate(*model.LastProcessedDate)
	if err != nil {
		return finance.Date{}, wrapStoreError(errorSubjectWatermark, errorCodeInvalid, err)
	}
	return watermark, nil
}

// SaveWatermark never moves the stored date backwards.
func (store *Store) SaveWatermark(ctx context.Context, processed finance.Date) error {
	value := processed.String()
	model := RecurringProcessingState{ID: singletonRowID, LastProcessedDate: &value, UpdatedAt: time.Now().UTC()}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_processed_date", "updated_at"}),
			Where:     clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: watermarkMonotonicUpdate}}},
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectWatermark, errorCodeUpsert, err)
	}
	return nil
}

func (store *Store) LoadUTCOffset(ctx context.Context) (string, bool, error) {
	var model Settings
	err := store.db.WithContext(ctx).Where("id = ?", singletonRowID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapStoreError(errorSubjectSettings, errorCodeGet, err)
	}
	return model.UTCOffset, true, nil
}

func (store *Store) SaveUTCOffset(ctx context.Context, offset string) error {
	model := Settings{ID: singletonRowID, UTCOffset: offset, UpdatedAt: time.Now().UTC()}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"utc_offset", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectSettings, errorCodeUpsert, err)
	}
	return nil
}

// TryAcquireLock inserts the claim, or overwrites an expired one, in a single statement.
func (store *Store) TryAcquireLock(ctx context.Context, claim finance.LockClaim) (bool, error) {
	model := JobLock{Name: claim.Name, LockedUntil: claim.UntilUnix, LockedBy: claim.Holder}
	result := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"locked_until", "locked_by"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: jobLockExpiredCondition, Vars: []any{claim.NowUnix}},
			}},
		}).
		Create(&model)
	if result.Error != nil {
		return false, wrapStoreError(errorSubjectLock, errorCodeUpsert, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return finance.WrapError(errorOperationStore, subject, code, err)
}

func transactionModel(input finance.TransactionInput) Transaction {
	var key *string
	if !input.IdempotencyKey.IsZero() {
		value := input.IdempotencyKey.String()
		key = &value
	}
	return Transaction{
		Source:         string(input.Source),
		IdempotencyKey: key,
		CategoryID:     input.CategoryID.String(),
		AmountCents:    input.AmountCents.Int64(),
		Date:           input.Date.String(),
		Description:    input.Description,
	}
}

func mapCategory(model Category) (finance.Category, error) {
	categoryID, err := finance.NewCategoryID(model.ID)
	if err != nil {
		return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeInvalid, err)
	}
	categoryType, err := finance.ParseCategoryType(model.Type)
	if err != nil {
		return finance.Category{}, wrapStoreError(errorSubjectCategory, errorCodeInvalid, err)
	}
	return finance.Category{ID: categoryID, Name: model.Name, Type: categoryType, Color: model.Color}, nil
}

func mapTemplates(rows []RecurringExpense) ([]finance.RecurringTemplate, error) {
	templates := make([]finance.RecurringTemplate, 0, len(rows))
	for _, row := range rows {
		template, err := mapTemplate(row)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, nil
}

func mapTemplate(model RecurringExpense) (finance.RecurringTemplate, error) {
	templateID, err := finance.NewTemplateID(model.ID)
	if err != nil {
		return finance.RecurringTemplate{}, wrapStoreError(errorSubjectTemplate, errorCodeInvalid, err)
	}
	categoryID, err := finance.NewCategoryID(model.CategoryID)
	if err != nil {
		return finance.RecurringTemplate{}, wrapStoreError(errorSubjectTemplate, errorCodeInvalid, err)
	}
	anchor, err := finance.ParseDate(model.Date)
	if err != nil {
		return finance.RecurringTemplate{}, wrapStoreError(errorSubjectTemplate, errorCodeInvalid, err)
	}
	return finance.RecurringTemplate{
		ID:          templateID,
		CategoryID:  categoryID,
		AmountCents: finance.AmountCents(model.AmountCents),
		DayOfMonth:  model.DayOfMonth,
		AnchorDate:  anchor,
		Description: model.Description,
	}, nil
}

func mapTransaction(model Transaction) (finance.Transaction, error) {
	transactionID, err := finance.NewTransactionID(model.ID)
	if err != nil {
		return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	source, err := finance.ParseSource(model.Source)
	if err != nil {
		return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	var key finance.IdempotencyKey
	if model.IdempotencyKey != nil {
		key, err = finance.NewIdempotencyKey(*model.IdempotencyKey)
		if err != nil {
			return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
		}
	}
	categoryID, err := finance.NewCategoryID(model.CategoryID)
	if err != nil {
		return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	date, err := finance.ParseDate(model.Date)
	if err != nil {
		return finance.Transaction{}, wrapStoreError(errorSubjectTransaction, errorCodeInvalid, err)
	}
	return finance.Transaction{
		ID:             transactionID,
		Source:         source,
		IdempotencyKey: key,
		CategoryID:     categoryID,
		AmountCents:    finance.AmountCents(model.AmountCents),
		Date:           date,
		Description:    model.Description,
	}, nil
}

// translateWriteError maps constraint failures to domain errors.
func translateWriteError(err error) error {
	if isForeignKeyViolation(err) {
		return finance.ErrUnknownCategory
	}
	if isUniqueViolation(err) {
		return finance.ErrDuplicateIdempotencyKey
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqliteForeignKeyCode ||
			(sqliteErr.Code()&0xFF == sqliteConstraintCode && strings.Contains(sqliteErr.Error(), "FOREIGN KEY"))
	}
	return false
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode && strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}
