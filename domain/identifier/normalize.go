package identifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// punctuation is dropped outright; hyphens are word separators, not punctuation
const punctuation = ".,/#!$%^&*;:{}=_`~()'\""

// Sanitize turns text into a lower-case, hyphen-separated token.
// e.g., "Don't click!!" -> "dont-click", "Sign-up  now" -> "sign-up-now"
func Sanitize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case strings.ContainsRune(punctuation, r):
			continue
		case r == '-' || unicode.IsSpace(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}

	token := strings.Join(strings.Fields(b.String()), "-")
	return norm.NFC.String(strings.ToLower(token))
}

// Truncate returns the first maxLength runes of text.
// A non-positive maxLength yields an empty string.
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	return string([]rune(text)[:maxLength])
}
