package driven

import (
	"context"

	"github.com/smartystudio/lockersync/internal/domain/model"
)

// LockerStore defines the driven port for locker directory persistence.
// The sync engine is the only writer; everything else reads.
// Lookup methods return nil, nil when no record matches.
type LockerStore interface {
	// ReplaceAll deletes the entire directory and inserts the given set in a
	// single transaction, so readers observe either the old or the new
	// directory, never a partial one.
	ReplaceAll(ctx context.Context, lockers []model.Locker) error

	// Query returns lockers matching the filter, ordered by address ascending.
	// Empty filter fields are ignored; the zero filter returns everything.
	Query(ctx context.Context, filter model.LockerFilter) ([]model.Locker, error)

	// GetByID returns the locker with the given provider id, or nil, nil.
	GetByID(ctx context.Context, lockerID int64) (*model.Locker, error)

	// FindByName returns the first locker whose name contains the given
	// string, case-insensitively, ordered by address. Returns nil, nil when
	// nothing matches.
	FindByName(ctx context.Context, name string) (*model.Locker, error)

	// DistinctCountries returns the countries currently present in the
	// directory, ordered ascending.
	DistinctCountries(ctx context.Context) ([]string, error)

	// Count returns the number of lockers in the directory.
	Count(ctx context.Context) (int, error)
}
