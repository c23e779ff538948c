package store

import "errors"

// ErrDuplicateEvent is returned when an event ID is recorded twice.
var ErrDuplicateEvent = errors.New("duplicate event id")
