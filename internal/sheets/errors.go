package sheets

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var (
	ErrAuthorizationDenied  = errors.New("authorization denied")
	ErrAuthorizationTimeout = errors.New("authorization timed out")
	ErrTransport            = errors.New("google sheets unreachable")
	ErrMalformedRemoteState = errors.New("spreadsheet missing or inaccessible")
	// ErrUnauthenticated means no grant is held yet. Callers either start an
	// authorization or give up quietly.
	ErrUnauthenticated = errors.New("google sheets access not granted")
)

// AuthorizationRequiredError carries the consent URL the user must visit
// before a sync can run.
type AuthorizationRequiredError struct {
	URL string
}

func (e *AuthorizationRequiredError) Error() string {
	return "google sheets authorization required"
}

// DenialError is returned when the user declines the grant or the consent
// window could not be shown.
type DenialError struct {
	Reason string
}

func (e *DenialError) Error() string {
	return "authorization denied: " + e.Reason
}

func (e *DenialError) Unwrap() error {
	return ErrAuthorizationDenied
}

// Message explains the denial to the user.
func (e *DenialError) Message() string {
	switch e.Reason {
	case "popup_closed_by_user":
		return "Authorization popup was closed. Please try again and complete the authorization."
	case "popup_blocked":
		return "Popup was blocked. Please allow popups for this site and try again."
	case "access_denied":
		return "Access to Google Sheets was denied. Grant access to sync your journal."
	case "":
		return "Permission denied. Please grant Google Sheets access when prompted."
	default:
		return "OAuth error: " + e.Reason
	}
}

// Classify maps a Google API, OAuth or network failure onto one of the
// package's error kinds. Errors that already carry a kind pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrAuthorizationDenied, ErrAuthorizationTimeout, ErrTransport, ErrMalformedRemoteState, ErrUnauthenticated} {
		if errors.Is(err, kind) {
			return err
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
		case apiErr.Code == 400 || apiErr.Code == 404:
			return fmt.Errorf("%w: %v", ErrMalformedRemoteState, err)
		default:
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %v", ErrAuthorizationDenied, err)
	}

	// Network failures, timeouts and anything else unexpected.
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// Guidance returns the message shown to the user for a classified error.
func Guidance(err error) string {
	var denial *DenialError
	var required *AuthorizationRequiredError
	switch {
	case errors.As(err, &denial):
		return denial.Message()
	case errors.As(err, &required), errors.Is(err, ErrUnauthenticated):
		return "Please grant Google Sheets access to sync your journal."
	case errors.Is(err, ErrAuthorizationDenied):
		return "Permission denied. Please grant Google Sheets access when prompted."
	case errors.Is(err, ErrAuthorizationTimeout):
		return "Authorization request timed out. Please try again and ensure popups are allowed."
	case errors.Is(err, ErrMalformedRemoteState):
		return "Invalid request. The spreadsheet may not exist or you may not have access."
	case errors.Is(err, ErrTransport):
		return "Could not reach Google Sheets. Check your internet connection and try again."
	default:
		return "Sync failed. Please try again."
	}
}
