package journal

import "strings"

// NormalizeTags splits comma separated input, trims every tag and drops
// blanks and duplicates while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	normalized := []string{}
	seen := make(map[string]bool)
	for _, raw := range tags {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			normalized = append(normalized, tag)
		}
	}
	return normalized
}

// SplitTags parses the ", " joined form used in the spreadsheet.
func SplitTags(joined string) []string {
	return NormalizeTags([]string{joined})
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
