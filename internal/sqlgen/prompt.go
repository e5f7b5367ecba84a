// File path: internal/sqlgen/prompt.go
package sqlgen

import (
	"strings"
)

// buildGenerationPrompt assembles the system prompt grounding the model in
// the retrieved schema context and optional sample data.
func buildGenerationPrompt(schemaContext, sampleData string) string {
	var b strings.Builder
	b.WriteString(`You are an expert SQL query generator. Your task is to convert natural language questions into valid SQL queries.

## Database Schema
`)
	b.WriteString(schemaContext)
	b.WriteString(`

## Rules
1. Generate ONLY SELECT queries (no INSERT, UPDATE, DELETE, DROP, etc.)
2. Use only the tables and columns that exist in the schema above
3. Return ONLY the SQL query, no explanations
4. If the question cannot be answered with the given schema, respond with: "CANNOT_GENERATE: <reason>"
5. Always use table aliases for clarity in JOIN queries
6. Use appropriate aggregate functions (COUNT, SUM, AVG, MIN, MAX) when needed
7. Include ORDER BY for better result presentation when appropriate
8. Use LIMIT clause for queries that might return many rows

## Important
- Column names are case-sensitive
- Use single quotes for string values
- Date format is 'YYYY-MM-DD'
`)
	if strings.TrimSpace(sampleData) != "" {
		b.WriteString("\n## Sample Data (for reference)\n")
		b.WriteString(sampleData)
		b.WriteString("\n")
	}
	b.WriteString(`
## Response Format
Return only the SQL query, nothing else. Do not include markdown code blocks or explanations.
`)
	return b.String()
}
