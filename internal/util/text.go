package util

import "strings"

// SanitizePostgresText strips invalid UTF-8 and NUL bytes, which
// Postgres TEXT columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}
	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}
