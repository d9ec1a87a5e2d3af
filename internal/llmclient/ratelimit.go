package llmclient

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
)

// RateLimitedClient spaces out calls to the wrapped client.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
}

// NewRateLimitedClient allows at most perMinute calls per minute, with no burst.
func NewRateLimitedClient(next schemas.LLMClient, perMinute float64) *RateLimitedClient {
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), 1),
	}
}

// Generate implements schemas.LLMClient.
func (c *RateLimitedClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return c.next.Generate(ctx, req)
}

// Close implements schemas.LLMClient.
func (c *RateLimitedClient) Close() error {
	return c.next.Close()
}
