package dbmysql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// RowStream is a lazily-produced, forward-only, non-restartable sequence
// of rows over one exclusively held session. At most one unconsumed row
// is ever in flight: the producer blocks after each row until the
// consumer asks for the next one, so memory stays bounded regardless of
// result-set size.
//
// Usage mirrors *sql.Rows:
//
//	s, err := fac.StreamQuery(ctx, "SELECT ...")
//	if err != nil { ... }
//	defer s.Close()
//	for s.Next() {
//		row := s.Row()
//		...
//	}
//	if err := s.Err(); err != nil { ... }
type RowStream struct {
	cols []string
	rowc chan []interface{}
	stop chan struct{}
	done chan struct{}

	cur []interface{}

	// written by the producer goroutine before done is closed
	err       error
	completed bool

	stopOnce sync.Once
}

// StreamQuery acquires one session, issues a streaming query on it and
// returns the row stream. If the stream runs to natural exhaustion the
// session is released; if iteration stops early or errors, the session
// is mid-protocol and gets destroyed instead.
func (f *Facility) StreamQuery(ctx context.Context, query string, args ...interface{}) (*RowStream, error) {
	if f.db == nil {
		return nil, ErrNotStarted
	}
	if f.streamSem != nil {
		if err := f.streamSem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire stream slot: %w", err)
		}
	}
	s, err := openRowStream(ctx, f, f.log, query, args...)
	if err != nil {
		if f.streamSem != nil {
			f.streamSem.Release(1)
		}
		return nil, err
	}
	if f.streamSem != nil {
		go func() {
			<-s.done
			f.streamSem.Release(1)
		}()
	}
	return s, nil
}

func openRowStream(ctx context.Context, pool Pool, log *slog.Logger, query string, args ...interface{}) (*RowStream, error) {
	h, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	id := uuid.NewString()

	src, err := h.Query(ctx, query, args...)
	if err != nil {
		// The query never started producing; the session is still clean.
		releaseOrDestroy(h, log, id)
		return nil, fmt.Errorf("stream query: %w", err)
	}

	cols, err := src.Columns()
	if err != nil {
		if cerr := src.Close(); cerr != nil {
			log.Warn("row source close failed", "stream_id", id, "error", cerr)
		}
		releaseOrDestroy(h, log, id)
		return nil, fmt.Errorf("read columns: %w", err)
	}

	s := &RowStream{
		cols: cols,
		rowc: make(chan []interface{}), // unbuffered: the rendezvous is the backpressure
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.produce(src, h, log, id)
	return s, nil
}

// produce scans rows off the source one at a time, handing each one to
// the consumer before touching the next. It settles the handle on every
// exit path: release after natural exhaustion, destroy otherwise.
func (s *RowStream) produce(src RowSource, h Handle, log *slog.Logger, id string) {
	defer close(s.done)
	defer s.settle(src, h, log, id)

	for src.Next() {
		row := make([]interface{}, len(s.cols))
		ptrs := make([]interface{}, len(s.cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := src.Scan(ptrs...); err != nil {
			s.err = fmt.Errorf("scan row: %w", err)
			close(s.rowc)
			return
		}
		// Detach []byte cells from the driver's reused scan buffer
		// before they cross the goroutine boundary.
		for i, v := range row {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			}
		}
		select {
		case s.rowc <- row:
		case <-s.stop:
			return
		}
	}

	if err := src.Err(); err != nil {
		s.err = err
	} else {
		s.completed = true
	}
	close(s.rowc)
}

// settle closes the source and disposes of the handle according to how
// the stream ended. A streaming query that did not run to completion
// leaves the session mid-protocol, unsafe to hand back to the pool.
func (s *RowStream) settle(src RowSource, h Handle, log *slog.Logger, id string) {
	if err := src.Close(); err != nil {
		log.Warn("row source close failed", "stream_id", id, "error", err)
	}
	if s.completed {
		releaseOrDestroy(h, log, id)
		return
	}
	if err := h.Destroy(); err != nil {
		log.Error("connection destroy failed", "stream_id", id, "error", err)
	}
}

// Columns returns the result column names, in query order.
func (s *RowStream) Columns() []string {
	return s.cols
}

// Next blocks until the next row is available and reports whether there
// is one. After it returns false, check Err.
func (s *RowStream) Next() bool {
	select {
	case row, ok := <-s.rowc:
		if !ok {
			// Wait for the session disposition so Err is settled by the
			// time iteration reports exhaustion.
			<-s.done
			return false
		}
		s.cur = row
		return true
	case <-s.done:
		return false
	}
}

// Row returns the current row. Valid until the next call to Next.
func (s *RowStream) Row() []interface{} {
	return s.cur
}

// Err returns the error that terminated iteration, if any. It reports
// nil while the stream is still producing.
func (s *RowStream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close stops iteration and waits for the underlying session to be
// settled. Safe to call more than once and after exhaustion.
func (s *RowStream) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return s.err
}
