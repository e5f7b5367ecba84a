// File path: internal/sqlgen/validator.go
package sqlgen

import (
	"regexp"
	"strings"
)

// Validation is the outcome of one safety inspection. IsValid is reserved for
// future syntactic checks and is always true; it must not be used as a gate.
// Only IsSafe decides execution eligibility. RiskScore is informational.
type Validation struct {
	IsSafe    bool     `json:"is_safe"`
	IsValid   bool     `json:"is_valid"`
	Issues    []string `json:"issues"`
	Warnings  []string `json:"warnings"`
	RiskScore int      `json:"risk_score"`
}

// Keyword presence anywhere in the statement blocks it. Substring matching is
// deliberately conservative: a column named "last_update" trips UPDATE.
var forbiddenKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "ALTER", "UPDATE",
	"INSERT", "GRANT", "REVOKE", "CREATE",
}

var systemTablePattern = regexp.MustCompile(`(?i)(information_schema|pg_catalog|pg_toast|sqlite_master)`)

// Risk weights per rule. Rules accumulate independently; several can fire on
// one query.
const (
	riskNonSelect          = 50
	riskForbiddenKeyword   = 40
	riskMultipleStatements = 30
	riskSystemTable        = 40
)

// Validate inspects raw SQL text against a list of known table names. It is a
// pure function of its inputs: no I/O, no side effects. Pass nil knownTables
// when the table list could not be obtained.
func Validate(sql string, knownTables []string) Validation {
	result := Validation{
		IsValid:  true,
		Issues:   []string{},
		Warnings: []string{},
	}
	trimmed := strings.TrimSpace(sql)
	upper := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upper, "SELECT") {
		result.Issues = append(result.Issues, "Only SELECT queries are allowed")
		result.RiskScore += riskNonSelect
	}
	for _, keyword := range forbiddenKeywords {
		if strings.Contains(upper, keyword) {
			result.Issues = append(result.Issues, "Forbidden keyword detected: "+keyword)
			result.RiskScore += riskForbiddenKeyword
		}
	}
	if idx := strings.IndexByte(trimmed, ';'); idx >= 0 && idx < len(trimmed)-1 {
		result.Issues = append(result.Issues, "Multiple SQL statements detected")
		result.RiskScore += riskMultipleStatements
	}
	if systemTablePattern.MatchString(trimmed) {
		result.Issues = append(result.Issues, "System table access detected")
		result.RiskScore += riskSystemTable
	}

	// Table existence is a sanity check only: it warns, never blocks.
	if knownTables == nil {
		result.Warnings = append(result.Warnings, "Table validation skipped")
	} else {
		found := false
		lower := strings.ToLower(trimmed)
		for _, table := range knownTables {
			if table == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(table)) {
				found = true
				break
			}
		}
		if !found {
			result.Warnings = append(result.Warnings, "No known table detected in query")
		}
	}

	result.IsSafe = len(result.Issues) == 0
	return result
}
