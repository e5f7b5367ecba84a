// File path: internal/llm/providers/openai.go
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/openai/openai-go/v2"

	"github.com/querypilot/querypilot/internal/common"
)

// OpenAIProvider sends chat completions through the OpenAI API (or any
// compatible endpoint such as Groq).
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(client openai.Client) *OpenAIProvider {
	model := strings.TrimSpace(os.Getenv("OPENAI_CHAT_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}
	logger := common.Logger()
	logger.Info("llm: OpenAI provider configured", "chat_model", model)
	return &OpenAIProvider{client: client, model: model}
}

func (o *OpenAIProvider) Complete(ctx context.Context, messages []Message, opts Options) (Completion, error) {
	logger := common.Logger()
	if len(messages) == 0 {
		return Completion{}, errors.New("no messages provided")
	}
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(opts.MaxTokens)
	}
	if len(opts.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.Stop}
	}
	for _, msg := range messages {
		switch strings.ToLower(msg.Role) {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}
	logger.Debug("llm: sending chat completion request", "model", o.model, "messages", len(messages))
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("llm: chat completion failed", "error", err)
		return Completion{}, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, errors.New("no choices returned")
	}
	completion := Completion{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	logger.Debug("llm: chat completion succeeded", "total_tokens", completion.TotalTokens)
	return completion, nil
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

// classifyError maps transport and API failures onto the distinct error
// classes callers report: rate limit, connection, generic API.
func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limit exceeded: %w", err)
		}
		return fmt.Errorf("API error: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("connection timeout: %w", err)
	}
	return err
}
