// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

// NewClient creates the provider client named in cfg and layers the retry and
// rate-limit decorators on top of it. The limiter sits inside the retry loop
// so retries are also spaced out.
func NewClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	var (
		client schemas.LLMClient
		err    error
	)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err = NewOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		client, err = NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]",
			cfg.Provider, config.ProviderOpenAI, config.ProviderGemini)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		client = NewRateLimitedClient(client, cfg.RequestsPerMinute)
	}
	if cfg.RetryMaxElapsed > 0 {
		client = NewRetryClient(client, cfg.RetryMaxElapsed, logger)
	}

	logger.Info("LLM client ready",
		zap.String("provider", string(cfg.Provider)),
		zap.String("model", cfg.Model),
	)
	return client, nil
}
