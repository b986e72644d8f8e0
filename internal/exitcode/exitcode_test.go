package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
	"taskdeck/internal/tracker"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitcode.Success},
		{"no session", tracker.ErrNoSession, exitcode.AuthError},
		{"rejected session", fmt.Errorf("%w: expired", tracker.ErrSessionRejected), exitcode.AuthError},
		{"rejected by server", fmt.Errorf("%w: %w", tracker.ErrSessionRejected, service.NewError(service.CodeInvalidCredentials, "invalid credentials")), exitcode.AuthError},
		{"rejected without connectivity", fmt.Errorf("%w: %w", tracker.ErrSessionRejected, service.NewError(service.CodeNoConnectivity, "no connection to server")), exitcode.BackendError},
		{"invalid credentials", service.NewError(service.CodeInvalidCredentials, "invalid credentials"), exitcode.AuthError},
		{"validation", service.NewError(service.CodeValidationRejected, "title is required"), exitcode.UserError},
		{"wrapped validation", fmt.Errorf("add: %w", service.NewError(service.CodeValidationRejected, "x")), exitcode.UserError},
		{"server", service.NewError(service.CodeServerError, "server error"), exitcode.BackendError},
		{"connectivity", service.NewError(service.CodeNoConnectivity, "no connection to server"), exitcode.BackendError},
		{"unclassified", errors.New("boom"), exitcode.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitcode.FromError(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
