package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoRows                   = errors.New("no rows")
	ErrUNIQUEConstraintFailed   = errors.New("unique constraint failed")
	ErrInternal                 = errors.New("internal server error")
	ErrMethodNotAllowed         = errors.New("method not allowed")
	ErrForbidden                = errors.New("access denied")
	ErrInvalidParams            = errors.New("invalid params")
	ErrDocumentNotFound         = errors.New("document not found")
	ErrDuplicateVisibleConflict = errors.New("document already accessible")
	ErrQuotaExceeded            = errors.New("private file quota exceeded")
	ErrStorageConflict          = errors.New("storage conflict")
	ErrHashComputation          = errors.New("failed to compute content hash")
	ErrLockTimeout              = errors.New("timed out waiting for user lock")
)

type UniqueConstraintError struct {
	Constraint string
	Err        error
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Constraint)
}

func (e *UniqueConstraintError) Unwrap() error {
	return e.Err
}
