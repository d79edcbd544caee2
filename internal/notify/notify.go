// Package notify describes the short-lived messages shown after an action.
// A Notification is plain data; whoever displays it owns the timer.
package notify

import (
	"errors"
	"time"

	"github.com/threewords/journal/internal/journal"
	"github.com/threewords/journal/internal/sheets"
	"github.com/threewords/journal/internal/suggest"
	"github.com/threewords/journal/internal/validation"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

const (
	ErrorDuration   = 5 * time.Second
	SuccessDuration = 3 * time.Second
)

type Notification struct {
	Message        string   `json:"message"`
	Severity       Severity `json:"severity"`
	DismissAfterMs int64    `json:"dismissAfterMs"`
}

func New(message string, severity Severity, after time.Duration) Notification {
	return Notification{Message: message, Severity: severity, DismissAfterMs: after.Milliseconds()}
}

func Error(message string) Notification {
	return New(message, SeverityError, ErrorDuration)
}

func Success(message string) Notification {
	return New(message, SeveritySuccess, SuccessDuration)
}

func Info(message string) Notification {
	return New(message, SeverityInfo, SuccessDuration)
}

// Validation reports a rejected form. It is shown as an error but dismissed
// as quickly as a success.
func Validation(message string) Notification {
	return New(message, SeverityError, SuccessDuration)
}

func (n Notification) DismissAfter() time.Duration {
	return time.Duration(n.DismissAfterMs) * time.Millisecond
}

// Expired reports whether a notification shown at shownAt should be gone by now.
func (n Notification) Expired(shownAt, now time.Time) bool {
	return !now.Before(shownAt.Add(n.DismissAfter()))
}

// FromError turns a failed operation into the message shown to the user.
func FromError(err error) Notification {
	var validationErr *validation.Error
	var suggestErr *suggest.Error
	var required *sheets.AuthorizationRequiredError

	switch {
	case errors.As(err, &validationErr):
		return Validation(validationErr.Message)
	case errors.Is(err, journal.ErrNotArray):
		return Error("Invalid file format. Expected an array of entries.")
	case errors.Is(err, journal.ErrParse):
		return Error("Error importing file. Please check the file format.")
	case errors.As(err, &suggestErr), errors.Is(err, journal.ErrInsufficientWords):
		return Error(suggest.Guidance(err))
	case errors.As(err, &required),
		errors.Is(err, sheets.ErrUnauthenticated),
		errors.Is(err, sheets.ErrAuthorizationDenied),
		errors.Is(err, sheets.ErrAuthorizationTimeout),
		errors.Is(err, sheets.ErrMalformedRemoteState),
		errors.Is(err, sheets.ErrTransport):
		return Error(sheets.Guidance(err))
	default:
		return Error("Something went wrong. Please try again.")
	}
}
