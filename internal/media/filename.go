package media

import (
	"regexp"
	"strings"
)

var squeezeRe = regexp.MustCompile(`[\s_]+`)

// SanitizeFilename reduces a media title to an ASCII-safe filename stem for
// HTTP headers. Non-ASCII and special characters become underscores, runs of
// whitespace and underscores collapse to one, and the result is capped at
// 100 characters. Returns fallback if nothing usable remains.
func SanitizeFilename(title, fallback string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r > 127:
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := squeezeRe.ReplaceAllString(strings.TrimSpace(b.String()), "_")
	if len(s) > 100 {
		s = s[:100]
	}
	s = strings.Trim(s, "_")
	if s == "" {
		return fallback
	}
	return s
}
