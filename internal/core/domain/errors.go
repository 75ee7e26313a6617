package domain

import "github.com/pkg/errors"

// Error kinds shared by every layer. Transports classify failures with errors.Is
// against these values.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("conflict")
)
