package history

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete for unknown ids.
var ErrNotFound = errors.New("analysis not found")

// Repository port for persisting and querying saved analyses
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id RecordID) (*Record, error)
	List(ctx context.Context, f Filter) ([]*Record, error)
	Delete(ctx context.Context, id RecordID) error
}

// ErrUnavailable means no storage driver is configured.
var ErrUnavailable = errors.New("storage not available")

// DefaultLimit and MaxLimit bound a listing.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ClampLimit maps a requested page size onto [1, MaxLimit], zero or negative meaning DefaultLimit.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
