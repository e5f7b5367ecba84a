// File path: internal/sqlgen/extract.go
package sqlgen

import (
	"strings"
)

// ExtractSQL pulls a single SQL statement out of raw model text: a leading
// triple-backtick fence (with or without a language tag) and its closing
// fence are stripped, then the text is truncated at the first statement
// terminator. Without a terminator the trimmed text is used whole.
func ExtractSQL(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "```sql") {
		text = text[len("```sql"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, ';'); idx >= 0 {
		text = text[:idx+1]
	}
	return strings.TrimSpace(text)
}
