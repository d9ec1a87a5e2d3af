package llmclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

// MockLLMClient is a mock implementation of the LLMClient interface for testing.
type MockLLMClient struct {
	mock.Mock
}

// Generate mocks the Generate method.
func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Close mocks the Close method.
func (m *MockLLMClient) Close() error {
	return m.Called().Error(0)
}

// setupTestLogger is a helper to create a zap logger for testing with an observer.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// getValidLLMConfig returns a valid LLMModelConfig for testing purposes.
func getValidLLMConfig() config.LLMModelConfig {
	return config.LLMModelConfig{
		Provider:    config.ProviderOpenAI,
		APIKey:      "test-api-key",
		Model:       "gpt-4o",
		APITimeout:  5 * time.Second,
		Temperature: 0,
		MaxTokens:   1024,
	}
}

func sampleRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: "You are a website crawler.",
		Turns: []schemas.Turn{
			{Role: schemas.RoleUser, Text: "find the weather"},
			{Role: schemas.RoleAssistant, Text: `{"url": "https://google.com/search?q=weather"}`},
			{Role: schemas.RoleUser, Text: "Here's the screenshot", Image: &schemas.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}},
		},
		Options: schemas.GenerationOptions{MaxTokens: 1024},
	}
}
