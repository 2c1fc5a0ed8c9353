package checkin

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/go-checkin/internal/errors"
)

type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field of a payload that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", errors.ErrInvalidPayload, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return errors.ErrInvalidPayload
}

// ValidatePayload normalises the payload and checks its bounds.
func ValidatePayload(p Payload) (Payload, error) {
	p.Feedback = strings.TrimSpace(p.Feedback)

	var fields []FieldError
	if p.Mood < MinMood || p.Mood > MaxMood {
		fields = append(fields, FieldError{
			Field:   "mood",
			Message: fmt.Sprintf("must be between %d and %d", MinMood, MaxMood),
		})
	}
	if utf8.RuneCountInString(p.Feedback) > MaxFeedbackLength {
		fields = append(fields, FieldError{
			Field:   "feedback",
			Message: fmt.Sprintf("must be at most %d characters", MaxFeedbackLength),
		})
	}

	if len(fields) > 0 {
		return p, &ValidationError{Fields: fields}
	}
	return p, nil
}
