package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/threewords/journal/internal/model"
)

var ErrValidation = errors.New("validation failed")

// Error is a rejected form field. Message is shown to the user as is.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return ErrValidation
}

const maxTagLength = 50

// ValidateEntry checks an entry submitted from the journal form. Words may
// be left empty but none may exceed model.MaxWordLength.
func ValidateEntry(e *model.Entry) error {
	if strings.TrimSpace(e.ExperienceSummary) == "" {
		return &Error{Field: "experienceSummary", Message: "Please describe your experience"}
	}
	if e.ExperienceDate.IsZero() {
		return &Error{Field: "experienceDate", Message: "Please select a date"}
	}

	for i, word := range e.Words {
		if utf8.RuneCountInString(word) > model.MaxWordLength {
			return &Error{
				Field:   fmt.Sprintf("words[%d]", i),
				Message: fmt.Sprintf("Word %d must be at most %d characters", i+1, model.MaxWordLength),
			}
		}
	}

	for _, tag := range e.Tags {
		if utf8.RuneCountInString(tag) > maxTagLength {
			return &Error{Field: "tags", Message: fmt.Sprintf("Tags must be at most %d characters", maxTagLength)}
		}
	}
	return nil
}
