package dbmysql

import "fmt"

// TxState records how far the transaction protocol advanced. The flags
// only ever move forward; on any terminal path where Started is true, at
// most one of Committed/Reverted is true. Both false with Started true
// means the COMMIT/ROLLBACK outcome is unknown and the work must be
// treated as possibly applied.
type TxState struct {
	Started   bool
	Committed bool
	Reverted  bool
}

// TxError wraps the failure that aborted a transaction together with a
// snapshot of the protocol state at the time the transaction call
// returned. It is the only error shape surfaced by the transaction
// executor.
type TxError struct {
	State TxState
	Err   error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction failed (started=%t committed=%t reverted=%t): %v",
		e.State.Started, e.State.Committed, e.State.Reverted, e.Err)
}

// Unwrap exposes the original cause to errors.Is and errors.As.
func (e *TxError) Unwrap() error {
	return e.Err
}
