package repositories

import "errors"

// Sentinel errors shared by every repository. Handlers translate these
// into the 404 and 409 envelope classifications.
var (
	ErrNotFound = errors.New("no matching record")
	ErrConflict = errors.New("duplicate record")
)
