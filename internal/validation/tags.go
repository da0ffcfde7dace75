package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxTags      = 10
	MaxTagLength = 50
)

// NormalizeTags trims, strips a leading '#', lowercases and de-duplicates tags,
// keeping first-seen order. Blank entries are dropped.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#")))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, fmt.Errorf("tag %q must not exceed %d characters", tag, MaxTagLength)
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	return out, nil
}
