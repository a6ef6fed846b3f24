package common

import (
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidatorCollectsAllFailures(t *testing.T) {
	v := NewValidator().
		Field("name", "  ", Required).
		Field("id", "nope", UUID).
		Field("title", strings.Repeat("é", 6), MaxLength(5)).
		Field("format", "xml", OneOf("json", "text")).
		Field("workers", 0, Positive)
	if len(v.errors) != 5 {
		t.Fatalf("errors = %v", v.errors)
	}
	err := ValidateAndReturnError(v)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v", status.Code(err))
	}
	for _, field := range []string{"name is required", "id must be a valid UUID", "title must be at most 5", "format must be one of", "workers must be positive"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("message lacks %s: %v", field, err)
		}
	}
}

func TestValidatorPasses(t *testing.T) {
	v := NewValidator().
		Field("name", "essay.txt", Required, MaxLength(255)).
		Field("id", "6f1c1f0e-0000-4000-8000-000000000000", UUID).
		Field("workers", int64(3), Positive)
	if v.HasErrors() || ValidateAndReturnError(v) != nil || v.ErrorMessage() != "" {
		t.Errorf("unexpected errors: %s", v.ErrorMessage())
	}
}
