package dbmysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
)

// RowSource iterates over the results of a streaming query.
// *sql.Rows satisfies it directly.
type RowSource interface {
	// Columns returns the column names. Safe to call after the query returns.
	Columns() ([]string, error)

	// Next advances to the next row. Returns false when there are no more
	// rows or an error occurs.
	Next() bool

	// Scan copies the columns of the current row into the values pointed
	// at by dest.
	Scan(dest ...interface{}) error

	// Err returns the error, if any, encountered during iteration.
	Err() error

	// Close closes the source and frees resources.
	Close() error
}

var _ RowSource = (*sql.Rows)(nil)

// Handle is an exclusively leased database session. The holder owns the
// handle until it calls exactly one of Release or Destroy.
type Handle interface {
	// Begin, Commit and Rollback drive the transaction protocol on this
	// session.
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Exec runs a statement on the session.
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Query runs a streaming query on the session.
	Query(ctx context.Context, query string, args ...interface{}) (RowSource, error)

	// Release returns the session to the pool for reuse. Only valid when
	// the session is idle at the driver level.
	Release() error

	// Destroy tears down the physical connection; it is never reused.
	Destroy() error
}

// Pool leases exclusive session handles.
type Pool interface {
	Acquire(ctx context.Context) (Handle, error)
}

// poolHandle is the concrete Handle over a *sql.Conn.
type poolHandle struct {
	conn *sql.Conn
}

func (h *poolHandle) Begin(ctx context.Context) error {
	_, err := h.conn.ExecContext(ctx, "BEGIN")
	return err
}

func (h *poolHandle) Commit(ctx context.Context) error {
	_, err := h.conn.ExecContext(ctx, "COMMIT")
	return err
}

func (h *poolHandle) Rollback(ctx context.Context) error {
	_, err := h.conn.ExecContext(ctx, "ROLLBACK")
	return err
}

func (h *poolHandle) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return h.conn.ExecContext(ctx, query, args...)
}

func (h *poolHandle) Query(ctx context.Context, query string, args ...interface{}) (RowSource, error) {
	return h.conn.QueryContext(ctx, query, args...)
}

func (h *poolHandle) Release() error {
	return h.conn.Close()
}

// Destroy marks the driver connection bad so database/sql discards it
// instead of returning it to the pool.
func (h *poolHandle) Destroy() error {
	err := h.conn.Raw(func(interface{}) error { return driver.ErrBadConn })
	if err != nil && !errors.Is(err, driver.ErrBadConn) && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}
