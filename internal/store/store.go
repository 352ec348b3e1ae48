package store

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so store functions can run
// standalone or inside a caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	// ErrInsufficientStock is returned when a pool holds less than the
	// quantity being taken out of it.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStaleDevice is returned when a device is no longer in the status or
	// location the caller expected.
	ErrStaleDevice = errors.New("device state changed")

	// ErrStockOverflow is returned when adding to a pool would take it past
	// model.MaxQuantity.
	ErrStockOverflow = errors.New("stock quantity too large")
)

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

