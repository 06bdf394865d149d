// Package validate provides the input validation rules shared by the
// onboarding wizard and the messaging layer: phone-number detection,
// URL-shape checks, and upload filename sanitization.
package validate

import (
	"regexp"
	"strings"
)

const sanitizedPrefixMaxLen = 24

var (
	// A run of 7+ digits optionally interspersed with spaces, parentheses,
	// hyphens, or dots, optionally prefixed with +. Phone numbers are
	// disallowed anywhere in agency free text; only website links are
	// accepted as contact info.
	phoneRegex = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)

	// Absolute URLs only: http:// or https:// prefix, case-insensitive.
	urlRegex = regexp.MustCompile(`(?i)^https?://`)

	unsafeFilenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// ContainsPhone reports whether text contains a phone-number-shaped substring.
func ContainsPhone(text string) bool {
	if text == "" {
		return false
	}
	return phoneRegex.MatchString(text)
}

// LooksLikeURL reports whether s, after trimming, is an absolute http(s) URL.
func LooksLikeURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return urlRegex.MatchString(s)
}

// SanitizePrefix reduces s to a filesystem-safe upload filename prefix:
// every character outside [a-zA-Z0-9_-] becomes an underscore and the result
// is capped at 24 characters.
func SanitizePrefix(s string) string {
	safe := unsafeFilenameRegex.ReplaceAllString(s, "_")
	if len(safe) > sanitizedPrefixMaxLen {
		safe = safe[:sanitizedPrefixMaxLen]
	}
	return safe
}

// DisplayName trims s and reports whether the result is usable as a display
// name.
func DisplayName(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	return trimmed, trimmed != ""
}
