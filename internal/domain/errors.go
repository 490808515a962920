package domain

import "errors"

// Error taxonomy of the core. Callers classify with errors.Is; the
// HTTP layer maps each class to a status code.
var (
	// ErrNotFound: a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPrecondition: the entity exists but is in the wrong state,
	// e.g. converting a lead that is not won. No side effects occurred.
	ErrPrecondition = errors.New("precondition failed")

	// ErrValidation: missing or malformed required input, detected
	// before any write.
	ErrValidation = errors.New("validation failed")

	// ErrConflict: a disallowed state transition or a uniqueness
	// collision (e.g. two conversions racing on one lead).
	ErrConflict = errors.New("conflict")

	// ErrConversion wraps any failure inside the conversion
	// transaction body; the whole transaction was rolled back.
	ErrConversion = errors.New("conversion failed")

	// ErrRestore wraps a failed recycle-bin restore; the snapshot is
	// left intact so the operation can be retried.
	ErrRestore = errors.New("restore failed")
)
