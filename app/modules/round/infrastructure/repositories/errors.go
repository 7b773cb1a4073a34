package rounddb

import "errors"

var (
	// ErrRoundNotFound is returned when a round does not exist.
	ErrRoundNotFound = errors.New("round not found")
	// ErrOutingNotFound is returned when an outing does not exist.
	ErrOutingNotFound = errors.New("outing not found")
	// ErrStaleTransferState is returned when ApplyMarkerTransfer finds the
	// transfer request already resolved or replaced; the guarded update
	// matched no row.
	ErrStaleTransferState = errors.New("transfer request state changed since read")
	// ErrNoRowsAffected is returned when an update or delete matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
