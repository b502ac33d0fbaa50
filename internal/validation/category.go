// Package validation normalizes user supplied labels.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxCategoryTags caps how many tags a single post may carry.
	MaxCategoryTags = 5
	// MaxCategoryTagLength caps a single tag in runes.
	MaxCategoryTagLength = 32
	categorySeparator    = ", "
)

var categoryTagRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} &'_-]*$`)

// NormalizeCategory cleans a comma separated tag list such as
// "Love, Family". Each tag is trimmed with inner whitespace collapsed, empty
// tags are dropped and repeats (ignoring case) keep their first spelling.
// The result is rejoined with ", ". An empty list is returned as "".
func NormalizeCategory(raw string) (string, error) {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for _, part := range parts {
		tag := strings.Join(strings.Fields(part), " ")
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxCategoryTagLength {
			return "", fmt.Errorf("category %q is longer than %d characters", tag, MaxCategoryTagLength)
		}
		if !categoryTagRegex.MatchString(tag) {
			return "", fmt.Errorf("category %q may only contain letters, numbers, spaces and & ' - _", tag)
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}

	if len(tags) > MaxCategoryTags {
		return "", fmt.Errorf("at most %d categories are allowed", MaxCategoryTags)
	}
	return strings.Join(tags, categorySeparator), nil
}
