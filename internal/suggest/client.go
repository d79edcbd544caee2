// Package suggest calls the word generation endpoint and turns its failures
// into messages a user can act on.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/threewords/journal/internal/journal"
)

// DefaultPath is where the server exposes word generation.
const DefaultPath = "/api/generate-words"

var ErrTransport = errors.New("suggestion endpoint unreachable")

// Error describes a failed suggestion. Status is zero when no response was
// received.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New returns a client for the endpoint at the given absolute URL.
func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

type request struct {
	ExperienceText string `json:"experienceText"`
}

type response struct {
	Words []string `json:"words"`
	Error string   `json:"error"`
}

// Suggest asks for three words describing text. It does not retry.
func (c *Client) Suggest(ctx context.Context, text string) ([3]string, error) {
	body, err := json.Marshal(request{ExperienceText: text})
	if err != nil {
		return [3]string{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return [3]string{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return [3]string{}, &Error{Message: "Network error: " + err.Error(), Err: ErrTransport}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return [3]string{}, &Error{Status: resp.StatusCode, Message: "Network error: " + err.Error(), Err: ErrTransport}
	}

	var payload response
	decodeErr := json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := payload.Error
		if decodeErr != nil || message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return [3]string{}, &Error{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("API request failed: %d - %s", resp.StatusCode, message),
		}
	}

	if decodeErr != nil || payload.Words == nil {
		return [3]string{}, &Error{Status: resp.StatusCode, Message: "Unexpected API response format"}
	}

	words, err := journal.ParseWords(strings.Join(payload.Words, ","))
	if err != nil {
		return [3]string{}, &Error{Status: resp.StatusCode, Message: err.Error(), Err: err}
	}
	return words, nil
}
