package llmclient

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
)

// RetryClient retries transient failures of the wrapped client with
// exponential backoff. Errors wrapping ErrPermanent, and cancellation of the
// caller's context, stop retrying immediately.
type RetryClient struct {
	next       schemas.LLMClient
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// NewRetryClient wraps next, giving up once maxElapsed has passed.
func NewRetryClient(next schemas.LLMClient, maxElapsed time.Duration, logger *zap.Logger) *RetryClient {
	return &RetryClient{
		next:   next,
		logger: logger.Named("llm_retry"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxElapsed
			b.MaxInterval = 30 * time.Second
			return b
		},
	}
}

// Generate implements schemas.LLMClient.
func (r *RetryClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	var reply string
	attempt := 0

	operation := func() error {
		attempt++
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			reply = out
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrPermanent) || errors.Is(err, ErrMissingAPIKey) {
			return backoff.Permanent(err)
		}
		r.logger.Warn("LLM request failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(r.newBackOff(), ctx)); err != nil {
		return "", err
	}
	return reply, nil
}

// Close implements schemas.LLMClient.
func (r *RetryClient) Close() error {
	return r.next.Close()
}
