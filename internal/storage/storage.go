package storage

import (
	"context"
	"errors"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Slot is a persistent key-value area holding raw serialized values.
// Get reports found=false for an absent key.
type Slot interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
