package suggest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/threewords/journal/internal/journal"
)

const (
	missingKeyMessage   = "Word suggestions are not configured on the server. Enter your three words manually."
	unauthorizedMessage = "The word suggestion service rejected our credentials. Enter your three words manually."
	rateLimitedMessage  = "Too many suggestion requests (rate limit). Wait a moment and try again."
	unreachableMessage  = "Could not reach the word suggestion service. Check your connection and try again."
)

var guidance = []struct {
	needles []string
	message string
}{
	{[]string{"api key"}, missingKeyMessage},
	{[]string{"401", "unauthorized"}, unauthorizedMessage},
	{[]string{"429", "rate limit"}, rateLimitedMessage},
	{[]string{"network", "fetch", "connection refused", "no such host", "timeout"}, unreachableMessage},
}

// Guidance maps a suggestion failure to a message for the user. Known
// failure classes are recognised by status or by substring; anything else
// keeps its own message.
func Guidance(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, journal.ErrInsufficientWords) {
		return "AI did not return 3 words. Try rephrasing your experience."
	}
	if errors.Is(err, ErrTransport) {
		return unreachableMessage
	}

	var suggestErr *Error
	if errors.As(err, &suggestErr) {
		switch suggestErr.Status {
		case http.StatusUnauthorized:
			return unauthorizedMessage
		case http.StatusTooManyRequests:
			return rateLimitedMessage
		}
	}

	text := strings.ToLower(err.Error())
	for _, g := range guidance {
		for _, needle := range g.needles {
			if strings.Contains(text, needle) {
				return g.message
			}
		}
	}
	return "AI word generation failed: " + err.Error()
}
