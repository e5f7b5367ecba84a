// File path: internal/sqlgen/explain.go
package sqlgen

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/querypilot/querypilot/internal/common"
	"github.com/querypilot/querypilot/internal/llm"
)

// Clause is one explained fragment of a query.
type Clause struct {
	Clause      string `json:"clause"`
	Explanation string `json:"explanation"`
}

// Explanation is a structured plain-language breakdown of a SQL query.
// Success and Err describe the attempt and are carried outside the wire
// payload; the API layer wraps them in its own envelope.
type Explanation struct {
	Success    bool     `json:"-"`
	Summary    string   `json:"summary,omitempty"`
	Clauses    []Clause `json:"clauses,omitempty"`
	TablesUsed []string `json:"tables_used,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
	Err        string   `json:"-"`
}

const explanationMaxTokens = 800

const explainSystemPrompt = `You are a SQL expert who explains queries in plain language.

Given a SQL query, respond with a JSON object matching this shape exactly:
{
  "summary": "one sentence describing what the query returns",
  "clauses": [{"clause": "SELECT ...", "explanation": "..."}],
  "tables_used": ["table1"],
  "complexity": "Simple" | "Moderate" | "Complex"
}

Return only the JSON object, no markdown code blocks or extra text.`

// Explainer turns SQL text into a structured explanation via the model.
type Explainer struct {
	provider llm.Provider
}

func NewExplainer(provider llm.Provider) *Explainer {
	return &Explainer{provider: provider}
}

// Explain asks the model for a JSON breakdown of the query. Parse failures
// are reported in the result, not raised.
func (e *Explainer) Explain(ctx context.Context, sql string) Explanation {
	logger := common.Logger()
	if e == nil || e.provider == nil {
		return Explanation{Err: "LLM client not initialized"}
	}
	messages := []llm.Message{
		{Role: "system", Content: explainSystemPrompt},
		{Role: "user", Content: "Explain this SQL query:\n\n" + sql},
	}
	completion, err := e.provider.Complete(ctx, messages, llm.Options{
		Temperature: 0,
		MaxTokens:   explanationMaxTokens,
	})
	if err != nil {
		logger.Error("sqlgen: explanation failed", "error", err)
		return Explanation{Err: err.Error()}
	}
	parsed, ok := parseExplanation(completion.Content)
	if !ok {
		logger.Warn("sqlgen: explanation response was not valid JSON")
		return Explanation{Err: "Failed to parse explanation response"}
	}
	parsed.Success = true
	return parsed
}

// parseExplanation decodes the model reply, tolerating markdown fences
// around the JSON body.
func parseExplanation(content string) (Explanation, bool) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var parsed Explanation
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return Explanation{}, false
	}
	if parsed.Summary == "" && len(parsed.Clauses) == 0 {
		return Explanation{}, false
	}
	return parsed, true
}
