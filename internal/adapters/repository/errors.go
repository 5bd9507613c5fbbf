package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	ErrClosed   = errors.New("store closed")
)
