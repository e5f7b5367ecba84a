// File path: internal/sqlgen/backend.go
package sqlgen

import (
	"context"
	"strings"

	"github.com/querypilot/querypilot/internal/common"
	"github.com/querypilot/querypilot/internal/llm"
)

// GenerationResult is the structured outcome of one generation attempt. No
// backend raises; failures are reported here.
type GenerationResult struct {
	Success bool   `json:"success"`
	SQL     string `json:"sql,omitempty"`
	Raw     string `json:"raw_response,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Backend converts a question plus schema context into SQL text.
type Backend interface {
	Generate(ctx context.Context, question, schemaContext, sampleData string) GenerationResult
	Name() string
}

// rulePattern maps a keyword set to a fixed SQL template. All keywords must
// appear in the lower-cased question; the first full match wins.
type rulePattern struct {
	keywords []string
	sql      string
}

var rulePatterns = []rulePattern{
	{[]string{"customer", "how many"}, "SELECT COUNT(*) FROM customers;"},
	{[]string{"customer"}, "SELECT * FROM customers;"},
	{[]string{"order", "how many"}, "SELECT COUNT(*) FROM orders;"},
	{[]string{"average"}, "SELECT AVG(price) FROM products;"},
	{[]string{"avg"}, "SELECT AVG(price) FROM products;"},
	{[]string{"product"}, "SELECT * FROM products;"},
}

// RuleBackend is the deterministic offline backend used for testing and for
// running without a model dependency.
type RuleBackend struct{}

func NewRuleBackend() *RuleBackend {
	return &RuleBackend{}
}

func (b *RuleBackend) Generate(ctx context.Context, question, schemaContext, sampleData string) GenerationResult {
	q := strings.ToLower(question)
	for _, pattern := range rulePatterns {
		matched := true
		for _, keyword := range pattern.keywords {
			if !strings.Contains(q, keyword) {
				matched = false
				break
			}
		}
		if matched {
			return GenerationResult{Success: true, SQL: pattern.sql}
		}
	}
	return GenerationResult{Success: true, SQL: "SELECT 1;"}
}

func (b *RuleBackend) Name() string {
	return "rules"
}

const generationMaxTokens = 500

// ModelBackend prompts the language-model collaborator and extracts a single
// SQL statement from its reply.
type ModelBackend struct {
	provider llm.Provider
}

func NewModelBackend(provider llm.Provider) *ModelBackend {
	return &ModelBackend{provider: provider}
}

func (b *ModelBackend) Generate(ctx context.Context, question, schemaContext, sampleData string) GenerationResult {
	logger := common.Logger()
	if b == nil || b.provider == nil {
		return GenerationResult{Err: "LLM client not initialized"}
	}
	messages := []llm.Message{
		{Role: "system", Content: buildGenerationPrompt(schemaContext, sampleData)},
		{Role: "user", Content: question},
	}
	completion, err := b.provider.Complete(ctx, messages, llm.Options{
		Temperature: 0,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		logger.Error("sqlgen: model generation failed", "error", err)
		return GenerationResult{Err: err.Error()}
	}
	return GenerationResult{
		Success: true,
		SQL:     ExtractSQL(completion.Content),
		Raw:     completion.Content,
	}
}

func (b *ModelBackend) Name() string {
	return "model"
}
