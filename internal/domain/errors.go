package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRegistered = errors.New("member already registered for this event")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrSync              = errors.New("state sync failed")

	ErrEventNotFound  = errors.New("event not found")
	ErrItemNotFound   = errors.New("catalog item not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrValidation     = errors.New("validation failed")
)

// SyncError reports a failed save to the persistence collaborator. The in-memory
// state that triggered the save is kept; a later sync retries it.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("sync: %v", e.Err)
	}
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool { return target == ErrSync }

func NewSyncError(op string, err error) error {
	return &SyncError{Op: op, Err: err}
}

func invalidOp(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, msg)
}

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
