package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxLogStringLength defines the maximum length, in characters, of user-provided strings in logs
const MaxLogStringLength = 200

var unprintable = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\p{P}\p{S}\p{Z}]`)

// SanitizeLogString makes a user-controlled string safe to log.
// It replaces control characters, strips unprintable runes and limits the
// length without splitting multi-byte characters.
func SanitizeLogString(input string) string {
	if input == "" {
		return ""
	}

	truncated := false
	if utf8.RuneCountInString(input) > MaxLogStringLength {
		input = string([]rune(input)[:MaxLogStringLength])
		truncated = true
	}

	// Pre-process CRLF to avoid double spaces
	input = strings.ReplaceAll(input, "\r\n", "\n")

	sanitized := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)

	sanitized = unprintable.ReplaceAllString(sanitized, "")

	if truncated {
		sanitized += "... (truncated)"
	}
	return sanitized
}

// MaskEmail hides the local part of an email address, keeping its first character
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return SanitizeLogString(email)
	}
	first, _ := utf8.DecodeRuneInString(email)
	return SanitizeLogString(string(first) + "***" + email[at:])
}
