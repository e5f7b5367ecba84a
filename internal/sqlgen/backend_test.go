// File path: internal/sqlgen/backend_test.go
package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/querypilot/querypilot/internal/llm"
)

type fakeProvider struct {
	content string
	err     error

	lastMessages []llm.Message
	lastOptions  llm.Options
}

func (f *fakeProvider) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	f.lastMessages = messages
	f.lastOptions = opts
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	return llm.Completion{Content: f.content}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestRuleBackendPatterns(t *testing.T) {
	backend := NewRuleBackend()
	cases := []struct {
		question string
		want     string
	}{
		{"How many customers are there?", "SELECT COUNT(*) FROM customers;"},
		{"Show all customers", "SELECT * FROM customers;"},
		{"How many orders do we have?", "SELECT COUNT(*) FROM orders;"},
		{"What is the average price of products?", "SELECT AVG(price) FROM products;"},
		{"avg product price", "SELECT AVG(price) FROM products;"},
		{"Show all products", "SELECT * FROM products;"},
		{"Something entirely unrelated", "SELECT 1;"},
	}
	for _, tc := range cases {
		result := backend.Generate(context.Background(), tc.question, "", "")
		if !result.Success {
			t.Fatalf("%q: expected success", tc.question)
		}
		if result.SQL != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.question, result.SQL, tc.want)
		}
	}
}

func TestModelBackendWithoutProvider(t *testing.T) {
	backend := NewModelBackend(nil)
	result := backend.Generate(context.Background(), "anything", "", "")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err != "LLM client not initialized" {
		t.Fatalf("unexpected error: %q", result.Err)
	}
}

func TestModelBackendExtractsFencedSQL(t *testing.T) {
	provider := &fakeProvider{content: "```sql\nSELECT name FROM customers;\n```"}
	backend := NewModelBackend(provider)
	result := backend.Generate(context.Background(), "customer names", "Table: customers", "")
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Err)
	}
	if result.SQL != "SELECT name FROM customers;" {
		t.Fatalf("unexpected sql: %q", result.SQL)
	}
	if result.Raw != provider.content {
		t.Fatal("raw response must be preserved")
	}
	if provider.lastOptions.Temperature != 0 {
		t.Fatalf("expected temperature 0, got %v", provider.lastOptions.Temperature)
	}
	if provider.lastOptions.MaxTokens != generationMaxTokens {
		t.Fatalf("expected max tokens %d, got %d", generationMaxTokens, provider.lastOptions.MaxTokens)
	}
	if len(provider.lastMessages) != 2 || provider.lastMessages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", provider.lastMessages)
	}
	if !strings.Contains(provider.lastMessages[0].Content, "Table: customers") {
		t.Fatal("schema context missing from system prompt")
	}
}

func TestModelBackendPropagatesProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limit exceeded")}
	backend := NewModelBackend(provider)
	result := backend.Generate(context.Background(), "anything", "", "")
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err != "rate limit exceeded" {
		t.Fatalf("unexpected error: %q", result.Err)
	}
}

func TestBuildGenerationPromptIncludesSampleData(t *testing.T) {
	prompt := buildGenerationPrompt("Table: customers", `customers: [{"id":1}]`)
	if !strings.Contains(prompt, "## Sample Data") {
		t.Fatal("expected sample data section")
	}
	if !strings.Contains(prompt, "CANNOT_GENERATE") {
		t.Fatal("expected refusal instruction")
	}
	bare := buildGenerationPrompt("Table: customers", "")
	if strings.Contains(bare, "## Sample Data") {
		t.Fatal("empty sample data must not add a section")
	}
}
