package finance

import (
	"context"
	"errors"
	"testing"
)

func TestImportCreatesThenUpdates(test *testing.T) {
	test.Parallel()
	store := newMemoryStore(test)
	logger := &recorderLogger{}
	service, err := NewImportService(store, WithOperationLogger(logger))
	if err != nil {
		test.Fatalf("import init failed: %v", err)
	}
	description := "coffee"
	first := ImportItem{
		IdempotencyKey: "bank-1",
		AmountCents:    -450,
		Date:           mustDate(test, "2026-02-13"),
		CategoryName:   "  Eating   Out ",
		Description:    &description,
		HasDescription: true,
	}
	results, err := service.Import(context.Background(), []ImportItem{first})
	if err != nil {
		test.Fatalf("import failed: %v", err)
	}
	if len(results) != 1 || results[0].Action != ImportActionCreated {
		test.Fatalf("expected created result, got %+v", results)
	}
	if results[0].Category.Name != "Eating Out" {
		test.Fatalf("expected collapsed category name, got %q", results[0].Category.Name)
	}

	second := ImportItem{
		IdempotencyKey: "bank-1",
		AmountCents:    -500,
		Date:           mustDate(test, "2026-02-14"),
		CategoryName:   "eating out",
	}
	results, err = service.Import(context.Background(), []ImportItem{second})
	if err != nil {
		test.Fatalf("second import failed: %v", err)
	}
	if results[0].Action != ImportActionUpdated {
		test.Fatalf("expected updated result, got %s", results[0].Action)
	}
	updated := results[0].Transaction
	if updated.AmountCents != -500 || updated.Date.String() != "2026-02-14" {
		test.Fatalf("unexpected updated transaction %+v", updated)
	}
	if updated.Description == nil || *updated.Description != "coffee" {
		test.Fatalf("expected description untouched when absent, got %v", updated.Description)
	}
	if len(store.state.categories) != 1 {
		test.Fatalf("expected case-insensitive category reuse, got %d categories", len(store.state.categories))
	}
	if len(logger.entries) != 2 {
		test.Fatalf("expected two log entries, got %d", len(logger.entries))
	}

	third := second
	third.HasDescription = true
	results, err = service.Import(context.Background(), []ImportItem{third})
	if err != nil {
		test.Fatalf("third import failed: %v", err)
	}
	if results[0].Transaction.Description != nil {
		test.Fatalf("expected explicit null to clear description")
	}
}

func TestImportIsAtomic(test *testing.T) {
	test.Parallel()
	store := newMemoryStore(test)
	service, _ := NewImportService(store)
	good := ImportItem{IdempotencyKey: "k-1", AmountCents: 100, Date: mustDate(test, "2026-02-13"), CategoryName: "Food"}
	store.failInsert = nil
	results, err := service.Import(context.Background(), []ImportItem{good})
	if err != nil || len(results) != 1 {
		test.Fatalf("seed import failed: %v", err)
	}
	store.failInsert = errors.New("write failed")
	next := ImportItem{IdempotencyKey: "k-2", AmountCents: 100, Date: mustDate(test, "2026-02-13"), CategoryName: "Travel"}
	if _, err := service.Import(context.Background(), []ImportItem{next}); err == nil {
		test.Fatalf("expected import error")
	}
	if len(store.state.categories) != 1 {
		test.Fatalf("expected rollback of the created category, got %d categories", len(store.state.categories))
	}
}

func TestImportValidation(test *testing.T) {
	test.Parallel()
	service, _ := NewImportService(newMemoryStore(test))
	testCases := []struct {
		name        string
		items       []ImportItem
		expectedErr error
	}{
		{name: "empty batch", items: nil, expectedErr: ErrEmptyImport},
		{name: "blank key", items: []ImportItem{{IdempotencyKey: "  ", Date: mustDate(test, "2026-02-13"), CategoryName: "Food"}}, expectedErr: ErrInvalidIdempotencyKey},
		{name: "blank category", items: []ImportItem{{IdempotencyKey: "k", Date: mustDate(test, "2026-02-13"), CategoryName: " "}}, expectedErr: ErrInvalidCategoryName},
		{name: "missing date", items: []ImportItem{{IdempotencyKey: "k", CategoryName: "Food"}}, expectedErr: ErrInvalidDate},
	}
	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if _, err := service.Import(context.Background(), testCase.items); !errors.Is(err, testCase.expectedErr) {
				test.Fatalf("expected %v, got %v", testCase.expectedErr, err)
			}
		})
	}
}

func TestImportGetAndRemoveByKey(test *testing.T) {
	test.Parallel()
	store := newMemoryStore(test)
	service, _ := NewImportService(store)
	item := ImportItem{IdempotencyKey: "k-1", AmountCents: 100, Date: mustDate(test, "2026-02-13"), CategoryName: "Food"}
	if _, err := service.Import(context.Background(), []ImportItem{item}); err != nil {
		test.Fatalf("import failed: %v", err)
	}
	transaction, err := service.Get(context.Background(), " k-1 ")
	if err != nil || transaction.Source != SourceOpenClaw {
		test.Fatalf("expected agent transaction, got %+v %v", transaction, err)
	}
	if err := service.Remove(context.Background(), "k-1"); err != nil {
		test.Fatalf("remove failed: %v", err)
	}
	if _, err := service.Get(context.Background(), "k-1"); !errors.Is(err, ErrUnknownTransaction) {
		test.Fatalf("expected ErrUnknownTransaction, got %v", err)
	}
	if err := service.Remove(context.Background(), "k-1"); !errors.Is(err, ErrUnknownTransaction) {
		test.Fatalf("expected ErrUnknownTransaction on second remove, got %v", err)
	}
}
