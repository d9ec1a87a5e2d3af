// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

// GeminiClient implements schemas.LLMClient against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	config config.LLMModelConfig
	logger *zap.Logger
}

// NewGeminiClient initializes the client.
func NewGeminiClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required (set GEMINI_API_KEY)", ErrMissingAPIKey)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.Endpoint
	}
	if cfg.APITimeout > 0 {
		timeout := cfg.APITimeout
		clientCfg.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		config: cfg,
		logger: logger.Named("llm_client.gemini"),
	}, nil
}

// Generate sends the conversation to Gemini and returns the reply text.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	contents := toGeminiContents(req.Turns)
	genConfig := c.generationConfig(req)

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: gemini blocked the prompt (reason: %s)", ErrPermanent, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrEmptyResponse)
	}

	text := resp.Text()
	if text == "" {
		reason := resp.Candidates[0].FinishReason
		if reason == genai.FinishReasonSafety || reason == genai.FinishReasonBlocklist {
			return "", fmt.Errorf("%w: gemini blocked the reply (reason: %s)", ErrPermanent, reason)
		}
		return "", fmt.Errorf("%w: gemini returned empty content (reason: %s)", ErrEmptyResponse, reason)
	}

	fields := []zap.Field{zap.Duration("duration", time.Since(start))}
	if u := resp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("completion_tokens", u.CandidatesTokenCount),
			zap.Int32("total_tokens", u.TotalTokenCount),
		)
	}
	c.logger.Info("LLM generation complete (Gemini)", fields...)
	return text, nil
}

func (c *GeminiClient) generationConfig(req schemas.GenerationRequest) *genai.GenerateContentConfig {
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Options.Temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	return genConfig
}

// toGeminiContents maps the transcript onto Gemini's user/model roles. Image
// turns put the image part before the caption.
func toGeminiContents(turns []schemas.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == schemas.RoleAssistant {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		if t.HasImage() {
			parts = append(parts, genai.NewPartFromBytes(t.Image.Data, t.Image.MIMEType))
		}
		if t.Text != "" {
			parts = append(parts, genai.NewPartFromText(t.Text))
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}

// Close implements schemas.LLMClient. The genai client holds no resources that
// need releasing.
func (c *GeminiClient) Close() error {
	return nil
}
