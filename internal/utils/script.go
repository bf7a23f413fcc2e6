package utils

import "unicode"

// SourceLanguage is the language agents and canned texts are authored in.
const SourceLanguage = "ko"

// ContainsSourceScript reports whether text contains any Hangul character
// (syllables, jamo or compatibility jamo).
func ContainsSourceScript(text string) bool {
	for _, r := range text {
		if isHangul(r) {
			return true
		}
	}
	return false
}

func isHangul(r rune) bool {
	switch {
	case r >= 0xAC00 && r <= 0xD7AF: // Hangul Syllables
		return true
	case r >= 0x1100 && r <= 0x11FF: // Hangul Jamo
		return true
	case r >= 0x3130 && r <= 0x318F: // Hangul Compatibility Jamo
		return true
	case r >= 0xA960 && r <= 0xA97F: // Hangul Jamo Extended-A
		return true
	case r >= 0xD7B0 && r <= 0xD7FF: // Hangul Jamo Extended-B
		return true
	}
	return false
}

// NormalizeLanguage lowercases a language code and drops any region suffix
// ("en-US" -> "en"). Empty input yields SourceLanguage.
func NormalizeLanguage(code string) string {
	out := make([]rune, 0, len(code))
	for _, r := range code {
		if r == '-' || r == '_' {
			break
		}
		out = append(out, unicode.ToLower(r))
	}
	if len(out) == 0 {
		return SourceLanguage
	}
	return string(out)
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
