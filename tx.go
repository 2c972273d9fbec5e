package dbmysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// TxFn is a unit of work executed inside a single flat transaction.
// Returning nil commits; returning an error (or panicking) rolls back.
// Nested transactions are not supported.
type TxFn func(ctx context.Context, tx *Tx) error

// Tx is the connection-scoped executor handed to a unit of work. All
// statements issued through it run on the one session holding the open
// transaction.
type Tx struct {
	h  Handle
	id string
}

// Exec runs a statement inside the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return t.h.Exec(ctx, query, args...)
}

// Query runs a query inside the transaction.
func (t *Tx) Query(ctx context.Context, query string, args ...interface{}) (RowSource, error) {
	return t.h.Query(ctx, query, args...)
}

// Handle exposes the raw session for callers that need driver-level
// access. The handle stays owned by the executor; the unit of work must
// not release or destroy it.
func (t *Tx) Handle() Handle {
	return t.h
}

// ID is the unique id attached to this transaction's log records.
func (t *Tx) ID() string {
	return t.id
}

// runTx is the one transaction state machine. RunTransaction and
// RunTransactionAsync are thin adapters over it so the two idioms cannot
// diverge on cleanup behavior.
//
// Every acquired handle leaves through exactly one of Release or Destroy,
// on every exit path. Cleanup failures are logged and escalate the handle
// disposition, but never replace the primary error.
func runTx(ctx context.Context, pool Pool, log *slog.Logger, fn TxFn) error {
	h, err := pool.Acquire(ctx)
	if err != nil {
		return &TxError{Err: fmt.Errorf("acquire connection: %w", err)}
	}

	id := uuid.NewString()
	st := TxState{}

	if err := h.Begin(ctx); err != nil {
		// Nothing was begun, so there is nothing to roll back, but the
		// handle still has to go back to the pool.
		releaseOrDestroy(h, log, id)
		return &TxError{State: st, Err: fmt.Errorf("begin transaction: %w", err)}
	}
	st.Started = true

	defer func() {
		if p := recover(); p != nil {
			log.Error("panic in unit of work, rolling back", "tx_id", id, "panic", p)
			rollbackAndDispose(ctx, h, log, id, &st)
			panic(p)
		}
	}()

	if err := fn(ctx, &Tx{h: h, id: id}); err != nil {
		rollbackAndDispose(ctx, h, log, id, &st)
		return &TxError{State: st, Err: err}
	}

	if err := h.Commit(ctx); err != nil {
		rollbackAndDispose(ctx, h, log, id, &st)
		return &TxError{State: st, Err: fmt.Errorf("commit transaction: %w", err)}
	}
	st.Committed = true

	releaseOrDestroy(h, log, id)
	return nil
}

// rollbackAndDispose rolls the open transaction back and settles the
// handle. A handle whose rollback failed is in unknown session state and
// must never re-enter the pool, so that path destroys it.
func rollbackAndDispose(ctx context.Context, h Handle, log *slog.Logger, id string, st *TxState) {
	if err := h.Rollback(ctx); err != nil {
		log.Error("rollback failed, destroying connection", "tx_id", id, "error", err)
		if derr := h.Destroy(); derr != nil {
			log.Error("connection destroy failed", "tx_id", id, "error", derr)
		}
		return
	}
	st.Reverted = true
	releaseOrDestroy(h, log, id)
}

// releaseOrDestroy returns the handle to the pool, falling back to
// destroy when release itself fails.
func releaseOrDestroy(h Handle, log *slog.Logger, id string) {
	if err := h.Release(); err != nil {
		log.Warn("connection release failed, destroying", "tx_id", id, "error", err)
		if derr := h.Destroy(); derr != nil {
			log.Error("connection destroy failed", "tx_id", id, "error", derr)
		}
	}
}

// runTxAsync is the callback-driven adapter over the same state machine:
// it runs runTx off the caller's goroutine and reports the outcome
// through a single terminal callback.
func runTxAsync(ctx context.Context, pool Pool, log *slog.Logger, fn TxFn, done func(error)) {
	go func() {
		done(runTx(ctx, pool, log, fn))
	}()
}

// RunTransaction executes fn inside BEGIN/COMMIT and blocks until the
// outcome is known. On failure it returns a *TxError wrapping the
// original cause and the final protocol state.
func (f *Facility) RunTransaction(ctx context.Context, fn TxFn) error {
	if f.db == nil {
		return &TxError{Err: ErrNotStarted}
	}
	return runTx(ctx, f, f.log, fn)
}

// RunTransactionAsync executes fn inside BEGIN/COMMIT without blocking
// the caller and invokes done exactly once with the outcome. The error
// passed to done is identical in shape and content to what
// RunTransaction would have returned for the same outcome.
func (f *Facility) RunTransactionAsync(ctx context.Context, fn TxFn, done func(error)) {
	if f.db == nil {
		go done(&TxError{Err: ErrNotStarted})
		return
	}
	runTxAsync(ctx, f, f.log, fn, done)
}
