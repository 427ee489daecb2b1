package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	numberedPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletPrefix   = regexp.MustCompile(`^[-*•]\s*`)
)

const minSuggestionLen = 10

func stripListMarker(line string) string {
	line = numberedPrefix.ReplaceAllString(line, "")
	line = bulletPrefix.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// listLines returns the non-empty lines of out with list markers removed.
func listLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = stripListMarker(strings.TrimSpace(line))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func capList(items []string, n int) []string {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	if items == nil {
		return []string{}
	}
	return items
}

func parseLines(out string, n int) []string {
	return capList(listLines(out), n)
}

// parseHashtags keeps one hashtag per line with spaces removed and a leading
// '#' added when missing.
func parseHashtags(out string, n int) []string {
	var tags []string
	for _, line := range listLines(out) {
		tag := strings.ReplaceAll(line, " ", "")
		if tag == "" || tag == "#" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	return capList(tags, n)
}

func parseTags(out string, n int) []string {
	var tags []string
	for _, line := range listLines(out) {
		tag := strings.TrimSpace(strings.ReplaceAll(line, "#", ""))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return capList(tags, n)
}

// parseSuggestions extracts up to n list items longer than ten characters.
// A response without usable items becomes a single suggestion.
func parseSuggestions(out string, n int) []string {
	var suggestions []string
	for _, line := range listLines(out) {
		if utf8.RuneCountInString(line) > minSuggestionLen {
			suggestions = append(suggestions, line)
		}
	}
	if len(suggestions) == 0 {
		if trimmed := strings.TrimSpace(out); trimmed != "" {
			return []string{trimmed}
		}
		return []string{}
	}
	return capList(suggestions, n)
}
