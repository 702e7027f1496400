package todo

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrDestroyed     = errors.New("task destroyed")
	ErrOrderTaken    = errors.New("order already in use")
	ErrDuplicateID   = errors.New("duplicate task id")
	ErrUnknownFilter = errors.New("unknown filter")
)

// Op names the store operation that failed.
type Op string

const (
	OpLoad   Op = "load"
	OpSave   Op = "save"
	OpDelete Op = "delete"
)

// PersistError is the result of a failed store write or load. By the time it
// is returned, the in-memory mutation that caused it has been rolled back.
type PersistError struct {
	Op  Op
	ID  string
	Err error
}

func (e *PersistError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistError reports whether err carries a *PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
