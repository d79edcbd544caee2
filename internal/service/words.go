package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/threewords/journal/internal/journal"
)

const wordsPrompt = `Based on this experience, suggest exactly 3 words that capture its essence. Follow these rules from "The 3 Word Journal":
- Use specific, concrete words (not generalities)
- Include a person, place, or thing if possible
- Make the words uniquely identify this experience
- Words should be memorable and evocative

Experience: "%s"

Respond with ONLY 3 words separated by commas, nothing else.`

// WordsError is a failed suggestion. Status is the HTTP status to answer
// with and Message is safe to show to the user.
type WordsError struct {
	Status  int
	Message string
	Err     error
}

func (e *WordsError) Error() string {
	return e.Message
}

func (e *WordsError) Unwrap() error {
	return e.Err
}

// WordsService proxies word suggestions to Anthropic so the API key stays
// on the server.
type WordsService struct {
	client anthropic.Client
	model  string
	apiKey string
}

func NewWordsService(apiKey, model string, opts ...option.RequestOption) *WordsService {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &WordsService{
		client: anthropic.NewClient(opts...),
		model:  model,
		apiKey: apiKey,
	}
}

// Generate asks for three words capturing an experience.
func (s *WordsService) Generate(ctx context.Context, experienceText string) ([3]string, error) {
	if s.apiKey == "" {
		return [3]string{}, &WordsError{Status: http.StatusInternalServerError, Message: "Anthropic API key is not configured on the server"}
	}
	if strings.TrimSpace(experienceText) == "" {
		return [3]string{}, &WordsError{Status: http.StatusBadRequest, Message: "Experience text is required"}
	}

	msg, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: 1000,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(wordsPrompt, experienceText))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			slog.WarnContext(ctx, "anthropic request failed", "status", apiErr.StatusCode)
			return [3]string{}, &WordsError{
				Status:  apiErr.StatusCode,
				Message: fmt.Sprintf("API request failed: %d - %s", apiErr.StatusCode, upstreamMessage(apiErr.RawJSON())),
				Err:     err,
			}
		}
		slog.ErrorContext(ctx, "anthropic request failed", "error", err)
		return [3]string{}, &WordsError{Status: http.StatusBadGateway, Message: err.Error(), Err: err}
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		return [3]string{}, &WordsError{Status: http.StatusInternalServerError, Message: "Unexpected API response format"}
	}

	words, err := journal.ParseWords(text)
	if err != nil {
		return [3]string{}, &WordsError{
			Status:  http.StatusInternalServerError,
			Message: strings.TrimPrefix(err.Error(), journal.ErrInsufficientWords.Error()+": "),
			Err:     err,
		}
	}
	return words, nil
}

// upstreamMessage digs the message out of an Anthropic error body.
func upstreamMessage(raw string) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(raw), &body) != nil || body.Error.Message == "" {
		return "Unknown error"
	}
	return body.Error.Message
}
