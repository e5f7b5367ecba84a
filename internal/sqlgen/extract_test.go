// File path: internal/sqlgen/extract_test.go
package sqlgen

import "testing"

func TestExtractSQL(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "SELECT * FROM t;", "SELECT * FROM t;"},
		{"sql fence", "```sql\nSELECT * FROM t;\n```", "SELECT * FROM t;"},
		{"bare fence", "```\nSELECT 1;\n```", "SELECT 1;"},
		{"truncates after terminator", "SELECT 1; DROP TABLE t;", "SELECT 1;"},
		{"no terminator", "SELECT name FROM customers", "SELECT name FROM customers"},
		{"surrounding whitespace", "  \n SELECT 1; \n ", "SELECT 1;"},
		{"empty", "", ""},
		{"fence with trailing prose", "```sql\nSELECT 1;\n```\nThis query counts rows.", "SELECT 1;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractSQL(tc.raw); got != tc.want {
				t.Fatalf("ExtractSQL(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
