package common

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidationError is one rejected field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// ValidationRule inspects one value and reports a failure, or nil.
type ValidationRule func(field string, value any) *ValidationError

// Validator accumulates failures across fields so callers can report them together.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field runs every rule against value.
func (v *Validator) Field(field string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if fail := rule(field, value); fail != nil {
			v.errors = append(v.errors, *fail)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

// ErrorMessage joins the failures with "; ", or returns "" when there are none.
func (v *Validator) ErrorMessage() string {
	parts := make([]string, len(v.errors))
	for i, e := range v.errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// ValidateAndReturnError maps accumulated failures to an InvalidArgument AppError.
func ValidateAndReturnError(v *Validator) error {
	if !v.HasErrors() {
		return nil
	}
	return InvalidArgumentError(v.ErrorMessage())
}

func fail(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// Required rejects nil and blank strings.
func Required(field string, value any) *ValidationError {
	switch v := value.(type) {
	case nil:
		return fail(field, value, "is required")
	case string:
		if strings.TrimSpace(v) == "" {
			return fail(field, value, "is required")
		}
	}
	return nil
}

// MaxLength caps a string at max runes. Non-strings pass.
func MaxLength(max int) ValidationRule {
	return func(field string, value any) *ValidationError {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) > max {
			return fail(field, value, "must be at most %d characters", max)
		}
		return nil
	}
}

func UUID(field string, value any) *ValidationError {
	s, ok := value.(string)
	if !ok {
		return fail(field, value, "must be a string")
	}
	if _, err := uuid.Parse(s); err != nil {
		return fail(field, value, "must be a valid UUID, got %q", s)
	}
	return nil
}

func OneOf(allowed ...string) ValidationRule {
	return func(field string, value any) *ValidationError {
		s, _ := value.(string)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fail(field, value, "must be one of %s, got %q", strings.Join(allowed, ", "), s)
	}
}

// Positive rejects zero, negatives and non-integers.
func Positive(field string, value any) *ValidationError {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	default:
		return fail(field, value, "must be an integer")
	}
	if n <= 0 {
		return fail(field, value, "must be positive, got %d", n)
	}
	return nil
}
