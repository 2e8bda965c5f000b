package executor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxErrorMessageLength caps how much of a raw error may cross the trust
// boundary.
const maxErrorMessageLength = 200

var (
	pathPattern   = regexp.MustCompile(`/[^\s]+/[^\s]+`)
	secretPattern = regexp.MustCompile(`(?i)(key|token|secret|password)[=:]\s*\S+`)
)

// SanitizeError strips filesystem paths and credential values from a raw
// error and truncates it before the text may be stored, broadcast or
// returned. Raw error text belongs in the internal logs only.
func SanitizeError(message string) string {
	if message == "" {
		return "An error occurred"
	}

	truncated := utf8.RuneCountInString(message) > maxErrorMessageLength
	sanitized := truncateRunes(message, maxErrorMessageLength)
	sanitized = pathPattern.ReplaceAllString(sanitized, "[path]")
	sanitized = secretPattern.ReplaceAllString(sanitized, "${1}=[redacted]")
	if truncated {
		sanitized = strings.TrimRightFunc(sanitized, unicode.IsSpace) + "..."
	}
	return sanitized
}

// truncateRunes cuts s to at most limit runes without splitting one.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
