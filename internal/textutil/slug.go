package textutil

import "strings"

// maxSafeNameLen bounds SafeName output so artifact filenames stay within
// common filesystem limits even for very long document stems.
const maxSafeNameLen = 120

// Slugify converts a string to a lowercase hyphenated slug. Runs of
// characters outside [a-z0-9-] collapse to a single hyphen and leading or
// trailing hyphens introduced by the collapse are trimmed. Hyphens already
// present in the input pass through untouched, so "q3-2024" survives as-is.
func Slugify(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	pending := false
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return strings.Trim(b.String(), "-")
}

// SafeName sanitizes a string for use as a filename segment. Runs of
// characters outside [A-Za-z0-9._-] become a single underscore, including
// runs at either end, and the result is truncated to 120 characters. Case
// is preserved so document stems remain recognizable.
func SafeName(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	pending := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			if pending {
				b.WriteByte('_')
				pending = false
			}
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if pending {
		b.WriteByte('_')
	}
	out := b.String()
	if len(out) > maxSafeNameLen {
		out = out[:maxSafeNameLen]
	}
	return out
}
