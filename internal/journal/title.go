package journal

import (
	"strings"
)

const (
	titleMinWords = 5
	titleMaxWords = 8
)

// GenerateTitle derives a short title from the experience text. Short texts
// are used whole. Longer ones are cut at a sentence end between the fifth and
// eighth word when there is one, otherwise after eight words, and marked with
// an ellipsis.
func GenerateTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) <= titleMinWords {
		return strings.Join(words, " ")
	}

	n := min(titleMaxWords, len(words))
	for i := titleMaxWords - 1; i >= titleMinWords-1; i-- {
		if i < len(words) && endsSentence(words[i]) {
			n = i + 1
			break
		}
	}

	title := strings.Join(words[:n], " ")
	title = strings.TrimRight(title, ",;:")
	if len(words) > n {
		title += "..."
	}
	return title
}

func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}
