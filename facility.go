// Package dbmysql is a connection-lifecycle and transaction-execution
// layer over a pooled MySQL client. It leases exclusive session handles,
// runs units of work inside all-or-nothing transactions, and exposes
// large result sets as backpressured row streams. Every acquired session
// is returned through exactly one of release or destroy.
package dbmysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/sync/semaphore"
)

// Facility owns the shared connection pool. It is constructed once,
// started and stopped by the surrounding process lifecycle, and handed
// to everything that needs database access.
type Facility struct {
	cfg       *Config
	log       *slog.Logger
	db        *sql.DB
	streamSem *semaphore.Weighted
}

// New builds an unstarted facility. A nil logger falls back to
// slog.Default().
func New(cfg *Config, log *slog.Logger) *Facility {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	f := &Facility{cfg: cfg, log: log}
	if cfg.StreamConcurrency > 0 {
		f.streamSem = semaphore.NewWeighted(cfg.StreamConcurrency)
	}
	return f
}

// driverLogger routes asynchronous connection-level driver faults into
// structured logging. They are not attributable to any in-flight unit of
// work and must never crash the process.
type driverLogger struct {
	log *slog.Logger
}

func (l *driverLogger) Print(v ...interface{}) {
	l.log.Error("mysql driver fault", "detail", fmt.Sprint(v...))
}

// Start opens the pool, applies the connection limit and verifies
// connectivity. It is the facility's process-lifecycle start hook.
func (f *Facility) Start(ctx context.Context) error {
	if f.db != nil {
		return ErrAlreadyStarted
	}

	if err := mysql.SetLogger(&driverLogger{log: f.log}); err != nil {
		return fmt.Errorf("install driver logger: %w", err)
	}

	db, err := sql.Open("mysql", f.cfg.DSN())
	if err != nil {
		return fmt.Errorf("open mysql pool: %w", err)
	}
	db.SetMaxOpenConns(f.cfg.ConnectionLimit)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping mysql: %w", err)
	}

	f.db = db
	f.log.Info("mysql facility started",
		"host", f.cfg.Host, "database", f.cfg.Database,
		"connection_limit", f.cfg.ConnectionLimit)
	return nil
}

// Stop closes the pool, releasing every idle connection. It is the
// facility's process-lifecycle stop hook.
func (f *Facility) Stop(ctx context.Context) error {
	if f.db == nil {
		return ErrNotStarted
	}
	err := f.db.Close()
	f.db = nil
	f.log.Info("mysql facility stopped")
	if err != nil {
		return fmt.Errorf("close mysql pool: %w", err)
	}
	return nil
}

// DB exposes the pooled query executor for plain, non-transactional
// statements.
func (f *Facility) DB() *sql.DB {
	return f.db
}

// Exec runs a single statement on any pooled connection.
func (f *Facility) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if f.db == nil {
		return nil, ErrNotStarted
	}
	return f.db.ExecContext(ctx, query, args...)
}

// Query runs a single query on any pooled connection.
func (f *Facility) Query(ctx context.Context, query string, args ...interface{}) (RowSource, error) {
	if f.db == nil {
		return nil, ErrNotStarted
	}
	return f.db.QueryContext(ctx, query, args...)
}

// Acquire leases an exclusive session from the pool. The caller owns the
// returned handle until it calls exactly one of Release or Destroy.
func (f *Facility) Acquire(ctx context.Context) (Handle, error) {
	if f.db == nil {
		return nil, ErrNotStarted
	}
	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &poolHandle{conn: conn}, nil
}

var _ Pool = (*Facility)(nil)
