package store

import "fmt"

// PersistenceError reports a failed read or write against the underlying
// storage. Callers are expected to log it and abort their current step; it is
// never surfaced to a connected client.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
