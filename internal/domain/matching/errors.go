package matching

import "errors"

// Sentinel kinds for match engine errors.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidProject  = errors.New("invalid project id")
)
