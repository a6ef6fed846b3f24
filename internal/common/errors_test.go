package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type codedErr struct{ code codes.Code }

func (e codedErr) Error() string         { return "coded" }
func (e codedErr) GRPCCode() codes.Code { return e.code }

func TestToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", fmt.Errorf("get: %w", ErrNotFound), codes.NotFound},
		{"app error", NewAppError("X", "bad", ErrInvalidInput), codes.InvalidArgument},
		{"coded", fmt.Errorf("wrap: %w", codedErr{codes.ResourceExhausted}), codes.ResourceExhausted},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"status passthrough", FailedPreconditionError("nope"), codes.FailedPrecondition},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := status.Code(ToStatus(tc.err))
			if got != tc.want {
				t.Errorf("code = %v, want %v", got, tc.want)
			}
		})
	}
	if ToStatus(nil) != nil {
		t.Error("nil should map to nil")
	}
}
