package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

// OpenAIClient implements schemas.LLMClient against the Chat Completions API.
type OpenAIClient struct {
	client openai.Client
	model  string
	config config.LLMModelConfig
	logger *zap.Logger
}

// NewOpenAIClient initializes the client. The SDK's own retries are disabled;
// retry policy belongs to the RetryClient decorator.
func NewOpenAIClient(cfg config.LLMModelConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required (set OPENAI_API_KEY)", ErrMissingAPIKey)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APITimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.APITimeout))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		config: cfg,
		logger: logger.Named("llm_client.openai"),
	}, nil
}

// Generate sends the conversation and returns the first choice's content.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	params := c.buildParams(req)

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: openai refused: %s", ErrPermanent, choice.Message.Refusal)
	}

	c.logger.Info("LLM generation complete (OpenAI)",
		zap.Duration("duration", time.Since(start)),
		zap.String("finish_reason", choice.FinishReason),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return choice.Message.Content, nil
}

func (c *OpenAIClient) buildParams(req schemas.GenerationRequest) openai.ChatCompletionNewParams {
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, toOpenAIMessages(req.Turns)...)

	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(req.Options.Temperature),
	}
}

// toOpenAIMessages converts transcript turns. Image turns become multi-part
// user messages with the image first and the caption second.
func toOpenAIMessages(turns []schemas.Turn) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case schemas.RoleSystem:
			out = append(out, openai.SystemMessage(t.Text))
		case schemas.RoleAssistant:
			out = append(out, openai.AssistantMessage(t.Text))
		default:
			if !t.HasImage() {
				out = append(out, openai.UserMessage(t.Text))
				continue
			}
			parts := []openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    t.Image.DataURI(),
					Detail: "high",
				}),
			}
			if t.Text != "" {
				parts = append(parts, openai.TextContentPart(t.Text))
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}

// classifyOpenAIError marks client errors other than rate limiting as permanent.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= 500:
			return fmt.Errorf("openai chat completion: %w", err)
		case apiErr.StatusCode >= 400:
			return fmt.Errorf("%w: openai chat completion: %w", ErrPermanent, err)
		}
	}
	return fmt.Errorf("openai chat completion: %w", err)
}

// Close implements schemas.LLMClient.
func (c *OpenAIClient) Close() error {
	return nil
}
