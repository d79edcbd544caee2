package journal

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInsufficientWords = errors.New("insufficient words")

// ParseWords extracts three words from a comma separated completion.
// Blank segments are ignored and anything after the third word is dropped.
func ParseWords(text string) ([3]string, error) {
	var words [3]string

	text = strings.TrimSpace(text)
	n := 0
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		words[n] = part
		n++
		if n == len(words) {
			return words, nil
		}
	}

	return [3]string{}, fmt.Errorf("%w: AI returned only %d word(s). Response: %q", ErrInsufficientWords, n, text)
}
