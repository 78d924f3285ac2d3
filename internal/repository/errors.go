package repository

import "errors"

// ErrNotFound is returned when a lookup matches no document. Services test
// for it with errors.Is to separate missing entities from store failures.
var ErrNotFound = errors.New("document not found")
