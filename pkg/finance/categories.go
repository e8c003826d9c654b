package finance

import (
	"context"
	"fmt"
)

// CategoryService manages categories.
type CategoryService struct {
	store CategoryStore
}

// NewCategoryService wires a CategoryService.
func NewCategoryService(store CategoryStore) (*CategoryService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: category store dependency is nil", ErrInvalidServiceConfig)
	}
	return &CategoryService{store: store}, nil
}

// Create stores a new category.
func (service *CategoryService) Create(ctx context.Context, input CategoryInput) (Category, error) {
	return service.store.CreateCategory(ctx, input)
}

// List returns categories ordered by name.
func (service *CategoryService) List(ctx context.Context) ([]Category, error) {
	return service.store.ListCategories(ctx)
}

// Update applies patch to an existing category.
func (service *CategoryService) Update(ctx context.Context, categoryID CategoryID, patch CategoryPatch) (Category, error) {
	return service.store.UpdateCategory(ctx, categoryID, patch)
}

// Remove deletes a category together with its templates and transactions.
func (service *CategoryService) Remove(ctx context.Context, categoryID CategoryID) error {
	return service.store.DeleteCategory(ctx, categoryID)
}
