// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, rejected input).
	UserError = 1

	// AuthError indicates missing or rejected credentials.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError maps an operation error to an exit code. A classified cause
// wins over the tracker's session sentinels, so a restore that failed for
// lack of a connection is a backend error.
func FromError(err error) int {
	if err == nil {
		return Success
	}
	var sErr *service.Error
	if errors.As(err, &sErr) {
		switch sErr.Code {
		case service.CodeInvalidCredentials:
			return AuthError
		case service.CodeValidationRejected, service.CodeLocalReferenceMissing:
			return UserError
		default:
			return BackendError
		}
	}
	if errors.Is(err, tracker.ErrNoSession) || errors.Is(err, tracker.ErrSessionRejected) {
		return AuthError
	}
	return BackendError
}
