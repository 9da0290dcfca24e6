// Package strcase converts Go identifiers into the snake_case keys used by
// JSON payloads and validation error details.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake maps TeamName to team_name and keeps initialisms together,
// so UserID becomes user_id and HTTPServer becomes http_server.
func ToLowerSnake(s string) string {
	rs := []rune(s)

	var sb strings.Builder
	sb.Grow(len(s) + 4)

	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) && wordStart(rs, i) {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToLower(r))
	}

	return sb.String()
}

func wordStart(rs []rune, i int) bool {
	prev := rs[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
}
