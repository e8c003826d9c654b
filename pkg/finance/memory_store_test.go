package finance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

type memoryState struct {
	categories   map[string]Category
	templates    map[string]RecurringTemplate
	transactions map[string]Transaction
	watermark    Date
	offset       string
	offsetSet    bool
	locks        map[string]LockClaim
	nextID       int
}

func (state memoryState) clone() memoryState {
	copied := state
	copied.categories = make(map[string]Category, len(state.categories))
	for key, value := range state.categories {
		copied.categories[key] = value
	}
	copied.templates = make(map[string]RecurringTemplate, len(state.templates))
	for key, value := range state.templates {
		copied.templates[key] = value
	}
	copied.transactions = make(map[string]Transaction, len(state.transactions))
	for key, value := range state.transactions {
		copied.transactions[key] = value
	}
	copied.locks = make(map[string]LockClaim, len(state.locks))
	for key, value := range state.locks {
		copied.locks[key] = value
	}
	return copied
}

// memoryStore is an in-memory Store with snapshot rollback in WithTx.
type memoryStore struct {
	test  *testing.T
	mutex *sync.Mutex
	state *memoryState

	insertCalls   int
	saveWatermark int
	failInsert    error
	failWatermark error
	failListDue   error
}

func newMemoryStore(test *testing.T) *memoryStore {
	test.Helper()
	return &memoryStore{
		test:  test,
		mutex: &sync.Mutex{},
		state: &memoryState{
			categories:   map[string]Category{},
			templates:    map[string]RecurringTemplate{},
			transactions: map[string]Transaction{},
			locks:        map[string]LockClaim{},
		},
	}
}

func (store *memoryStore) newID(prefix string) string {
	store.state.nextID++
	return fmt.Sprintf("%s-%03d", prefix, store.state.nextID)
}

func (store *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	store.mutex.Lock()
	snapshot := store.state.clone()
	store.mutex.Unlock()
	if err := fn(ctx, store); err != nil {
		store.mutex.Lock()
		*store.state = snapshot
		store.mutex.Unlock()
		return err
	}
	return nil
}

func (store *memoryStore) Ping(context.Context) error {
	return nil
}

func (store *memoryStore) CreateCategory(_ context.Context, input CategoryInput) (Category, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	category := Category{ID: CategoryID{value: store.newID("category")}, Name: input.Name, Type: input.Type, Color: input.Color}
	store.state.categories[category.ID.String()] = category
	return category, nil
}

func (store *memoryStore) GetCategory(_ context.Context, categoryID CategoryID) (Category, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	category, ok := store.state.categories[categoryID.String()]
	if !ok {
		return Category{}, ErrUnknownCategory
	}
	return category, nil
}

func (store *memoryStore) FindCategoryByName(_ context.Context, name string) (Category, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	for _, category := range store.state.categories {
		if strings.EqualFold(category.Name, name) {
			return category, nil
		}
	}
	return Category{}, ErrUnknownCategory
}

func (store *memoryStore) ListCategories(context.Context) ([]Category, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	categories := make([]Category, 0, len(store.state.categories))
	for _, category := range store.state.categories {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(left, right int) bool { return categories[left].Name < categories[right].Name })
	return categories, nil
}

func (store *memoryStore) UpdateCategory(_ context.Context, categoryID CategoryID, patch CategoryPatch) (Category, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	category, ok := store.state.categories[categoryID.String()]
	if !ok {
		return Category{}, ErrUnknownCategory
	}
	if patch.Name != nil {
		category.Name = *patch.Name
	}
	if patch.Type != nil {
		category.Type = *patch.Type
	}
	if patch.Color != nil {
		category.Color = *patch.Color
	}
	store.state.categories[categoryID.String()] = category
	return category, nil
}

func (store *memoryStore) DeleteCategory(_ context.Context, categoryID CategoryID) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, ok := store.state.categories[categoryID.String()]; !ok {
		return ErrUnknownCategory
	}
	delete(store.state.categories, categoryID.String())
	for id, template := range store.state.templates {
		if template.CategoryID == categoryID {
			delete(store.state.templates, id)
		}
	}
	for id, transaction := range store.state.transactions {
		if transaction.CategoryID == categoryID {
			delete(store.state.transactions, id)
		}
	}
	return nil
}

func (store *memoryStore) CreateTemplate(_ context.Context, input RecurringTemplateInput) (RecurringTemplate, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, ok := store.state.categories[input.CategoryID.String()]; !ok {
		return RecurringTemplate{}, ErrUnknownCategory
	}
	template := RecurringTemplate{
		ID:          TemplateID{value: store.newID("template")},
		CategoryID:  input.CategoryID,
		AmountCents: input.AmountCents,
		DayOfMonth:  input.DayOfMonth,
		AnchorDate:  input.AnchorDate,
		Description: input.Description,
	}
	store.state.templates[template.ID.String()] = template
	return template, nil
}

func (store *memoryStore) DeleteTemplate(_ context.Context, templateID TemplateID) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, ok := store.state.templates[templateID.String()]; !ok {
		return ErrUnknownTemplate
	}
	delete(store.state.templates, templateID.String())
	return nil
}

func (store *memoryStore) sortedTemplates() []RecurringTemplate {
	templates := make([]RecurringTemplate, 0, len(store.state.templates))
	for _, template := range store.state.templates {
		templates = append(templates, template)
	}
	sort.Slice(templates, func(left, right int) bool {
		if templates[left].DayOfMonth != templates[right].DayOfMonth {
			return templates[left].DayOfMonth < templates[right].DayOfMonth
		}
		if templates[left].AnchorDate != templates[right].AnchorDate {
			return templates[left].AnchorDate.Before(templates[right].AnchorDate)
		}
		return templates[left].ID.String() < templates[right].ID.String()
	})
	return templates
}

func (store *memoryStore) ListTemplates(context.Context) ([]RecurringTemplate, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.sortedTemplates(), nil
}

func (store *memoryStore) ListTemplatesDue(_ context.Context, query DueQuery) ([]RecurringTemplate, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if store.failListDue != nil {
		return nil, store.failListDue
	}
	var due []RecurringTemplate
	for _, template := range store.sortedTemplates() {
		if query.Matches(template) {
			due = append(due, template)
		}
	}
	return due, nil
}

func (store *memoryStore) findByKey(source Source, key IdempotencyKey) (Transaction, bool) {
	if key.IsZero() {
		return Transaction{}, false
	}
	for _, transaction := range store.state.transactions {
		if transaction.Source == source && transaction.IdempotencyKey == key {
			return transaction, true
		}
	}
	return Transaction{}, false
}

func (store *memoryStore) insert(input TransactionInput) Transaction {
	transaction := Transaction{
		ID:             TransactionID{value: store.newID("transaction")},
		Source:         input.Source,
		IdempotencyKey: input.IdempotencyKey,
		CategoryID:     input.CategoryID,
		AmountCents:    input.AmountCents,
		Date:           input.Date,
		Description:    input.Description,
	}
	store.state.transactions[transaction.ID.String()] = transaction
	return transaction
}

func (store *memoryStore) CreateTransaction(_ context.Context, input TransactionInput) (Transaction, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, ok := store.state.categories[input.CategoryID.String()]; !ok {
		return Transaction{}, ErrUnknownCategory
	}
	return store.insert(input), nil
}

func (store *memoryStore) InsertTransactionsIgnoringConflicts(_ context.Context, inputs []TransactionInput) (int64, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.insertCalls++
	if store.failInsert != nil {
		return 0, store.failInsert
	}
	var inserted int64
	for _, input := range inputs {
		if _, exists := store.findByKey(input.Source, input.IdempotencyKey); exists {
			continue
		}
		store.insert(input)
		inserted++
	}
	return inserted, nil
}

func (store *memoryStore) GetTransaction(_ context.Context, transactionID TransactionID) (Transaction, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	transaction, ok := store.state.transactions[transactionID.String()]
	if !ok {
		return Transaction{}, ErrUnknownTransaction
	}
	return transaction, nil
}

func (store *memoryStore) GetTransactionByKey(_ context.Context, source Source, key IdempotencyKey) (Transaction, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	transaction, ok := store.findByKey(source, key)
	if !ok {
		return Transaction{}, ErrUnknownTransaction
	}
	return transaction, nil
}

func (store *memoryStore) ListTransactions(_ context.Context, filter TransactionFilter) (TransactionPage, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	var matched []Transaction
	for _, transaction := range store.state.transactions {
		if filter.From != nil && transaction.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && transaction.Date.After(*filter.To) {
			continue
		}
		if filter.CategoryID != nil && transaction.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.Source != nil && transaction.Source != *filter.Source {
			continue
		}
		matched = append(matched, transaction)
	}
	sort.Slice(matched, func(left, right int) bool { return matched[left].Date.After(matched[right].Date) })
	page := TransactionPage{Total: int64(len(matched))}
	end := min(filter.Offset+filter.Limit, len(matched))
	if filter.Offset < len(matched) {
		page.Items = matched[filter.Offset:end]
	}
	return page, nil
}

func (store *memoryStore) ExistingKeys(_ context.Context, source Source, keys []IdempotencyKey) (map[IdempotencyKey]struct{}, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	existing := map[IdempotencyKey]struct{}{}
	for _, key := range keys {
		if _, ok := store.findByKey(source, key); ok {
			existing[key] = struct{}{}
		}
	}
	return existing, nil
}

func applyPatch(transaction Transaction, patch TransactionPatch) Transaction {
	if patch.CategoryID != nil {
		transaction.CategoryID = *patch.CategoryID
	}
	if patch.AmountCents != nil {
		transaction.AmountCents = *patch.AmountCents
	}
	if patch.Date != nil {
		transaction.Date = *patch.Date
	}
	if patch.ClearDescription {
		transaction.Description = nil
	} else if patch.Description != nil {
		transaction.Description = patch.Description
	}
	return transaction
}

func (store *memoryStore) UpdateTransaction(_ context.Context, transactionID TransactionID, patch TransactionPatch) (Transaction, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	transaction, ok := store.state.transactions[transactionID.String()]
	if !ok {
		return Transaction{}, ErrUnknownTransaction
	}
	transaction = applyPatch(transaction, patch)
	store.state.transactions[transactionID.String()] = transaction
	return transaction, nil
}

func (store *memoryStore) UpdateTransactionByKey(_ context.Context, source Source, key IdempotencyKey, patch TransactionPatch) (Transaction, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	transaction, ok := store.findByKey(source, key)
	if !ok {
		return Transaction{}, ErrUnknownTransaction
	}
	transaction = applyPatch(transaction, patch)
	store.state.transactions[transaction.ID.String()] = transaction
	return transaction, nil
}

func (store *memoryStore) DeleteTransaction(_ context.Context, transactionID TransactionID) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, ok := store.state.transactions[transactionID.String()]; !ok {
		return ErrUnknownTransaction
	}
	delete(store.state.transactions, transactionID.String())
	return nil
}

func (store *memoryStore) DeleteTransactionByKey(_ context.Context, source Source, key IdempotencyKey) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	transaction, ok := store.findByKey(source, key)
	if !ok {
		return ErrUnknownTransaction
	}
	delete(store.state.transactions, transaction.ID.String())
	return nil
}

func (store *memoryStore) LoadWatermark(context.Context) (Date, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.state.watermark, nil
}

func (store *memoryStore) SaveWatermark(_ context.Context, processed Date) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.saveWatermark++
	if store.failWatermark != nil {
		return store.failWatermark
	}
	if store.state.watermark.IsZero() || processed.After(store.state.watermark) {
		store.state.watermark = processed
	}
	return nil
}

func (store *memoryStore) LoadUTCOffset(context.Context) (string, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.state.offset, store.state.offsetSet, nil
}

func (store *memoryStore) SaveUTCOffset(_ context.Context, offset string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.state.offset = offset
	store.state.offsetSet = true
	return nil
}

func (store *memoryStore) TryAcquireLock(_ context.Context, claim LockClaim) (bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	existing, ok := store.state.locks[claim.Name]
	if ok && existing.UntilUnix > claim.NowUnix {
		return false, nil
	}
	store.state.locks[claim.Name] = claim
	return true, nil
}

func (store *memoryStore) transactionsBySource(source Source) []Transaction {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	var matched []Transaction
	for _, transaction := range store.state.transactions {
		if transaction.Source == source {
			matched = append(matched, transaction)
		}
	}
	sort.Slice(matched, func(left, right int) bool {
		return matched[left].IdempotencyKey.String() < matched[right].IdempotencyKey.String()
	})
	return matched
}

type recorderLogger struct {
	mutex   sync.Mutex
	entries []OperationLog
}

func (logger *recorderLogger) LogOperation(_ context.Context, entry OperationLog) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.entries = append(logger.entries, entry)
}

type recorderAlerter struct {
	mutex    sync.Mutex
	messages []string
}

func (alerter *recorderAlerter) Alert(_ context.Context, message string) {
	alerter.mutex.Lock()
	defer alerter.mutex.Unlock()
	alerter.messages = append(alerter.messages, message)
}

func (alerter *recorderAlerter) count() int {
	alerter.mutex.Lock()
	defer alerter.mutex.Unlock()
	return len(alerter.messages)
}

type fixedOffsets struct {
	offset UTCOffset
	err    error
}

func (provider fixedOffsets) UTCOffset(context.Context) (UTCOffset, error) {
	return provider.offset, provider.err
}

func fixedClock(instant time.Time) func() time.Time {
	return func() time.Time { return instant }
}

func mustDate(test *testing.T, raw string) Date {
	test.Helper()
	date, err := ParseDate(raw)
	if err != nil {
		test.Fatalf("parse date %q: %v", raw, err)
	}
	return date
}

func mustInstant(test *testing.T, raw string) time.Time {
	test.Helper()
	instant, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		test.Fatalf("parse instant %q: %v", raw, err)
	}
	return instant
}

func mustOffset(test *testing.T, raw string) UTCOffset {
	test.Helper()
	offset, err := ParseUTCOffset(raw)
	if err != nil {
		test.Fatalf("parse offset %q: %v", raw, err)
	}
	return offset
}

func mustCategory(test *testing.T, store *memoryStore, name string) Category {
	test.Helper()
	input, err := NewCategoryInput(name, "", "")
	if err != nil {
		test.Fatalf("category input: %v", err)
	}
	category, err := store.CreateCategory(context.Background(), input)
	if err != nil {
		test.Fatalf("create category: %v", err)
	}
	return category
}

func mustTemplate(test *testing.T, store *memoryStore, category Category, amount AmountCents, anchor string) RecurringTemplate {
	test.Helper()
	anchorDate := mustDate(test, anchor)
	input, err := NewRecurringTemplateInput(category.ID, amount, anchorDate.Day(), anchorDate, nil)
	if err != nil {
		test.Fatalf("template input: %v", err)
	}
	template, err := store.CreateTemplate(context.Background(), input)
	if err != nil {
		test.Fatalf("create template: %v", err)
	}
	return template
}
