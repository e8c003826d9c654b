package finance

import (
	"context"
	"fmt"
)

// TransactionService manages manually entered transactions.
type TransactionService struct {
	store TransactionStore
}

// NewTransactionService wires a TransactionService.
func NewTransactionService(store TransactionStore) (*TransactionService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: transaction store dependency is nil", ErrInvalidServiceConfig)
	}
	return &TransactionService{store: store}, nil
}

// Create stores a manual transaction.
func (service *TransactionService) Create(ctx context.Context, categoryID CategoryID, amount AmountCents, date Date, description *string) (Transaction, error) {
	input, err := NewTransactionInput(SourceManual, IdempotencyKey{}, categoryID, amount, date, description)
	if err != nil {
		return Transaction{}, err
	}
	return service.store.CreateTransaction(ctx, input)
}

// List returns one page of transactions, newest first.
func (service *TransactionService) List(ctx context.Context, filter TransactionFilter) (TransactionPage, error) {
	return service.store.ListTransactions(ctx, filter)
}

// Update applies patch; an empty patch returns the current row.
func (service *TransactionService) Update(ctx context.Context, transactionID TransactionID, patch TransactionPatch) (Transaction, error) {
	if patch.IsEmpty() {
		return service.store.GetTransaction(ctx, transactionID)
	}
	return service.store.UpdateTransaction(ctx, transactionID, patch)
}

// Remove deletes a transaction by id.
func (service *TransactionService) Remove(ctx context.Context, transactionID TransactionID) error {
	return service.store.DeleteTransaction(ctx, transactionID)
}
