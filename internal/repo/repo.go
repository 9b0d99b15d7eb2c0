package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"srisai/internal/model"
	"srisai/internal/storage"
)

// BookingsKey is the slot key holding the serialized booking collection.
const BookingsKey = "srisai_bookings"

// Repository is the booking store. The collection is kept newest-first and
// every write replaces it whole.
type Repository interface {
	Load(ctx context.Context) ([]model.Booking, error)
	SaveAll(ctx context.Context, records []model.Booking) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

type repository struct {
	slot storage.Slot
	key  string
	log  *zerolog.Logger
}

func NewRepository(slot storage.Slot, log *zerolog.Logger) (Repository, error) {
	if slot == nil {
		return nil, fmt.Errorf("slot cannot be nil")
	}
	return &repository{slot: slot, key: BookingsKey, log: log}, nil
}

// Load returns an empty collection when the key is absent or its value does
// not decode. Backend failures are returned.
func (r *repository) Load(ctx context.Context) ([]model.Booking, error) {
	raw, found, err := r.slot.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}
	if !found {
		return []model.Booking{}, nil
	}

	var records []model.Booking
	if err := json.Unmarshal(raw, &records); err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("stored bookings are not valid JSON, treating as empty")
		return []model.Booking{}, nil
	}
	if records == nil {
		records = []model.Booking{}
	}
	return records, nil
}

func (r *repository) SaveAll(ctx context.Context, records []model.Booking) error {
	if records == nil {
		records = []model.Booking{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode bookings: %w", err)
	}
	if err := r.slot.Set(ctx, r.key, raw); err != nil {
		return fmt.Errorf("failed to write bookings: %w", err)
	}
	return nil
}

func (r *repository) Clear(ctx context.Context) error {
	if err := r.slot.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("failed to clear bookings: %w", err)
	}
	return nil
}

func (r *repository) Ping(ctx context.Context) error {
	return r.slot.Ping(ctx)
}
