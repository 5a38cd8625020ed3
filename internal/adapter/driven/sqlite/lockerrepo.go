package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smartystudio/lockersync/internal/domain/model"
	"github.com/smartystudio/lockersync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LockerStore = (*LockerRepo)(nil)

// LockerRepo is the SQLite implementation of the LockerStore port interface.
type LockerRepo struct {
	db *DB
}

// NewLockerRepo creates a new LockerRepo backed by the given DB.
func NewLockerRepo(db *DB) *LockerRepo {
	return &LockerRepo{db: db}
}

const lockerColumns = `locker_id, name, country, city_name, post_code, address, full_address, updated_at`

// ReplaceAll atomically replaces the entire locker directory. It deletes all
// existing rows and inserts the provided set in a single transaction on the
// writer connection, so WAL readers see either the old or the new directory.
func (r *LockerRepo) ReplaceAll(ctx context.Context, lockers []model.Locker) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	if _, err := tx.ExecContext(ctx, `DELETE FROM lockers`); err != nil {
		return fmt.Errorf("clear lockers: %w", err)
	}

	const insertQuery = `
		INSERT INTO lockers (` + lockerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, l := range lockers {
		updatedAt := l.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}

		if _, err := tx.ExecContext(ctx, insertQuery,
			l.LockerID, l.Name, l.Country, l.CityName,
			l.PostCode, l.Address, l.FullAddress, updatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert locker %d: %w", l.LockerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit locker replacement: %w", err)
	}

	return nil
}

// Query returns lockers matching the filter, ordered by address ascending.
// Empty filter fields are not applied.
func (r *LockerRepo) Query(ctx context.Context, filter model.LockerFilter) ([]model.Locker, error) {
	query := `SELECT ` + lockerColumns + ` FROM lockers`

	var conds []string
	var args []any

	if filter.Country != "" {
		conds = append(conds, "country = ?")
		args = append(args, filter.Country)
	}
	if filter.City != "" {
		conds = append(conds, "city_name = ?")
		args = append(args, filter.City)
	}
	if filter.PostCode != "" {
		conds = append(conds, "post_code = ?")
		args = append(args, filter.PostCode)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY address"

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lockers: %w", err)
	}
	defer rows.Close()

	var lockers []model.Locker
	for rows.Next() {
		locker, err := scanLocker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan locker: %w", err)
		}
		lockers = append(lockers, *locker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lockers: %w", err)
	}

	return lockers, nil
}

// GetByID retrieves a locker by its provider id. Returns nil, nil if the
// locker does not exist.
func (r *LockerRepo) GetByID(ctx context.Context, lockerID int64) (*model.Locker, error) {
	const query = `SELECT ` + lockerColumns + ` FROM lockers WHERE locker_id = ?`

	locker, err := scanLocker(r.db.Reader.QueryRowContext(ctx, query, lockerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get locker %d: %w", lockerID, err)
	}

	return locker, nil
}

// FindByName returns the first locker whose name contains the given string,
// case-insensitively, in address order. Returns nil, nil if nothing matches.
// LIKE is case-insensitive for ASCII in SQLite, matching the original lookup.
func (r *LockerRepo) FindByName(ctx context.Context, name string) (*model.Locker, error) {
	const query = `
		SELECT ` + lockerColumns + `
		FROM lockers
		WHERE name LIKE '%' || ? || '%'
		ORDER BY address
		LIMIT 1
	`

	locker, err := scanLocker(r.db.Reader.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find locker by name %q: %w", name, err)
	}

	return locker, nil
}

// DistinctCountries returns the countries currently present in the directory,
// ordered ascending.
func (r *LockerRepo) DistinctCountries(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT country FROM lockers WHERE country != '' ORDER BY country`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query distinct countries: %w", err)
	}
	defer rows.Close()

	var countries []string
	for rows.Next() {
		var country string
		if err := rows.Scan(&country); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, country)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}

	return countries, nil
}

// Count returns the number of lockers in the directory.
func (r *LockerRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM lockers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count lockers: %w", err)
	}

	return count, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLocker(s scanner) (*model.Locker, error) {
	var locker model.Locker
	var updatedAt string

	err := s.Scan(
		&locker.LockerID, &locker.Name, &locker.Country, &locker.CityName,
		&locker.PostCode, &locker.Address, &locker.FullAddress, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	locker.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &locker, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
