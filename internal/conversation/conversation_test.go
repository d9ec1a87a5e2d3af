package conversation

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
)

func TestConversationAppendOnly(t *testing.T) {
	c := New("system prompt")
	c.AppendUser("what is the weather in Oslo?")
	c.AppendAssistant(`{"url": "https://google.com/search?q=weather+oslo"}`)
	c.AppendImage(schemas.Image{MIMEType: "image/jpeg", Data: []byte{1, 2}}, "Here's the screenshot")
	c.AppendAssistant(`{"click": "Weather"}`)
	c.AppendObservation("ERROR: I was unable to click that element")

	turns := c.Turns()
	require.Len(t, turns, 6)
	assert.Equal(t, 6, c.Len())

	roles := make([]schemas.Role, len(turns))
	for i, turn := range turns {
		roles[i] = turn.Role
	}
	assert.Equal(t, []schemas.Role{
		schemas.RoleSystem, schemas.RoleUser, schemas.RoleAssistant,
		schemas.RoleUser, schemas.RoleAssistant, schemas.RoleUser,
	}, roles)

	assert.True(t, turns[3].HasImage())
	assert.Equal(t, "Here's the screenshot", turns[3].Text)
	assert.Equal(t, "ERROR: I was unable to click that element", c.Last().Text)
}

func TestTurnsReturnsCopy(t *testing.T) {
	c := New("sys")
	c.AppendUser("hello")

	turns := c.Turns()
	turns[1].Text = "mutated"

	assert.Equal(t, "hello", c.Turns()[1].Text)
}

func TestRequestSeparatesSystemPrompt(t *testing.T) {
	c := New("You are a website crawler.")
	c.AppendUser("hi")
	c.AppendAssistant("hello")

	req := c.Request(schemas.GenerationOptions{MaxTokens: 1024})

	assert.Equal(t, "You are a website crawler.", req.SystemPrompt)
	require.Len(t, req.Turns, 2)
	assert.Equal(t, schemas.RoleUser, req.Turns[0].Role)
	assert.Equal(t, schemas.RoleAssistant, req.Turns[1].Role)
	assert.Equal(t, 1024, req.Options.MaxTokens)
	assert.Equal(t, 3, c.Len(), "building a request does not change the transcript")
}

// stubEncoder splits on whitespace.
type stubEncoder struct{}

func (stubEncoder) Encode(text string, _, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

func TestTokenCounter(t *testing.T) {
	turns := []schemas.Turn{
		{Role: schemas.RoleUser, Text: "one two three"},
		{Role: schemas.RoleUser, Text: "caption", Image: &schemas.Image{MIMEType: "image/jpeg", Data: []byte{1}}},
	}

	t.Run("with encoder", func(t *testing.T) {
		tc := NewTokenCounter("gpt-4o", zap.NewNop())
		tc.loadEnc = func(string) (encoder, error) { return stubEncoder{}, nil }

		// primer + 2*(overhead + role) + 3 words + 1 word + image
		want := replyPrimer + 2*(messageOverhead+1) + 3 + 1 + imageTokens
		assert.Equal(t, want, tc.Count(turns))
	})

	t.Run("falls back to character estimate", func(t *testing.T) {
		tc := NewTokenCounter("gpt-4o", zap.NewNop())
		tc.loadEnc = func(string) (encoder, error) { return nil, errors.New("offline") }

		// "user" -> 1, "one two three" (13 chars) -> 4, "caption" (7) -> 2
		want := replyPrimer + 2*(messageOverhead+1) + 4 + 2 + imageTokens
		assert.Equal(t, want, tc.Count(turns))
	})
}

func TestTokenCounterLoadsEncodingOffline(t *testing.T) {
	cacheDir := t.TempDir()
	t.Setenv("TIKTOKEN_CACHE_DIR", cacheDir)
	// Any download attempt would fail against this proxy.
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:1")

	tc := NewTokenCounter("gemini-2.5-flash", zap.NewNop())
	turns := []schemas.Turn{{Role: schemas.RoleUser, Text: "What is on the front page of Hacker News?"}}

	done := make(chan int, 1)
	go func() { done <- tc.Count(turns) }()

	select {
	case n := <-done:
		assert.Greater(t, n, replyPrimer)
	case <-time.After(5 * time.Second):
		t.Fatal("Count blocked loading the tokenizer")
	}
	require.NotNil(t, tc.enc, "encoding loads from embedded data")

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is downloaded into the cache")
}

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, "o200k_base", encodingFor("gpt-4o"))
	assert.Equal(t, "o200k_base", encodingFor("gpt-4o-mini"))
	assert.Equal(t, "cl100k_base", encodingFor("gpt-4-vision-preview"))
	assert.Equal(t, "cl100k_base", encodingFor("gemini-2.5-flash"))
}
