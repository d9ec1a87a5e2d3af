package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/config"
)

func TestToGeminiContents(t *testing.T) {
	contents := toGeminiContents(sampleRequest().Turns)
	require.Len(t, contents, 3)

	assert.Equal(t, "user", string(contents[0].Role))
	assert.Equal(t, "model", string(contents[1].Role))
	assert.Equal(t, `{"url": "https://google.com/search?q=weather"}`, contents[1].Parts[0].Text)

	imageTurn := contents[2]
	require.Len(t, imageTurn.Parts, 2)
	require.NotNil(t, imageTurn.Parts[0].InlineData)
	assert.Equal(t, "image/jpeg", imageTurn.Parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, imageTurn.Parts[0].InlineData.Data)
	assert.Equal(t, "Here's the screenshot", imageTurn.Parts[1].Text)
}

func TestToGeminiContentsSkipsEmptyTurns(t *testing.T) {
	contents := toGeminiContents([]schemas.Turn{{Role: schemas.RoleUser}, {Role: schemas.RoleUser, Text: "hi"}})
	require.Len(t, contents, 1)
	assert.Equal(t, "hi", contents[0].Parts[0].Text)
}

func TestGeminiGenerationConfig(t *testing.T) {
	cfg := getValidLLMConfig()
	cfg.Provider = config.ProviderGemini
	cfg.MaxTokens = 512
	logger, _ := setupTestLogger(t)
	c, err := NewGeminiClient(context.Background(), cfg, logger)
	require.NoError(t, err)

	req := sampleRequest()
	req.Options = schemas.GenerationOptions{Temperature: 0.3}
	gc := c.generationConfig(req)

	assert.Equal(t, int32(512), gc.MaxOutputTokens, "falls back to configured max tokens")
	require.NotNil(t, gc.Temperature)
	assert.InDelta(t, 0.3, *gc.Temperature, 1e-6)
	require.NotNil(t, gc.SystemInstruction)
	assert.Equal(t, "You are a website crawler.", gc.SystemInstruction.Parts[0].Text)

	req.SystemPrompt = ""
	assert.Nil(t, c.generationConfig(req).SystemInstruction)
}
