package errs

import (
	"errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoAvailableCopies = errors.New("no available copies")
	ErrInvalidDate       = errors.New("due date is in the past")
	ErrConflict          = errors.New("record is referenced elsewhere")
)
