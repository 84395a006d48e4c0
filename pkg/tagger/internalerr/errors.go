package internalerr

import "errors"

// Sentinel errors shared by the loaders and stores. The matching engine never
// returns any of these: a missing term or an unknown vocabulary is simply an
// empty result.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicate        = errors.New("duplicate entry")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnsupportedFile  = errors.New("unsupported vocabulary file")
)
