package finance

import (
	"context"
	"fmt"
)

// SettingsService manages the singleton settings row.
type SettingsService struct {
	store SettingsStore
}

// NewSettingsService wires a SettingsService.
func NewSettingsService(store SettingsStore) (*SettingsService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: settings store dependency is nil", ErrInvalidServiceConfig)
	}
	return &SettingsService{store: store}, nil
}

// UTCOffset returns the stored offset, persisting the default on first use.
func (service *SettingsService) UTCOffset(ctx context.Context) (UTCOffset, error) {
	stored, ok, err := service.store.LoadUTCOffset(ctx)
	if err != nil {
		return UTCOffset{}, err
	}
	if !ok || stored == "" {
		offset := DefaultUTCOffset()
		if err := service.store.SaveUTCOffset(ctx, offset.String()); err != nil {
			return UTCOffset{}, err
		}
		return offset, nil
	}
	return ParseUTCOffset(stored)
}

// UTCOffsetMinutes returns the stored offset in signed minutes.
func (service *SettingsService) UTCOffsetMinutes(ctx context.Context) (int, error) {
	offset, err := service.UTCOffset(ctx)
	if err != nil {
		return 0, err
	}
	return offset.Minutes(), nil
}

// UpdateUTCOffset normalizes raw and persists it.
func (service *SettingsService) UpdateUTCOffset(ctx context.Context, raw string) (UTCOffset, error) {
	offset, err := ParseUTCOffset(raw)
	if err != nil {
		return UTCOffset{}, err
	}
	if err := service.store.SaveUTCOffset(ctx, offset.String()); err != nil {
		return UTCOffset{}, err
	}
	return offset, nil
}
