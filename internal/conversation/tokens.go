package conversation

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"go.uber.org/zap"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
)

// Per-message framing overhead and a flat charge for a high-detail image tile
// set, matching how chat completion APIs bill.
const (
	messageOverhead = 4
	replyPrimer     = 3
	imageTokens     = 765
)

// BPE ranks come from the data embedded in the loader module. The default loader
// downloads them on first use with no timeout.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

type encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// TokenCounter estimates the prompt size of a transcript. Counts are only
// logged; the transcript is never trimmed.
type TokenCounter struct {
	encoding string
	logger   *zap.Logger

	once    sync.Once
	enc     encoder
	loadEnc func(name string) (encoder, error)
}

// NewTokenCounter picks the tokenizer encoding that matches model.
func NewTokenCounter(model string, logger *zap.Logger) *TokenCounter {
	return &TokenCounter{
		encoding: encodingFor(model),
		logger:   logger.Named("tokens"),
		loadEnc: func(name string) (encoder, error) {
			return tiktoken.GetEncoding(name)
		},
	}
}

func encodingFor(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return "o200k_base"
	default:
		return "cl100k_base"
	}
}

// Count returns the estimated prompt tokens for turns. When the encoding can't
// be loaded it falls back to four characters per token.
func (tc *TokenCounter) Count(turns []schemas.Turn) int {
	tc.once.Do(func() {
		enc, err := tc.loadEnc(tc.encoding)
		if err != nil {
			tc.logger.Debug("Tokenizer unavailable, using character estimate", zap.String("encoding", tc.encoding), zap.Error(err))
			return
		}
		tc.enc = enc
	})

	total := replyPrimer
	for _, t := range turns {
		total += messageOverhead + tc.countText(string(t.Role)) + tc.countText(t.Text)
		if t.HasImage() {
			total += imageTokens
		}
	}
	return total
}

func (tc *TokenCounter) countText(s string) int {
	if s == "" {
		return 0
	}
	if tc.enc != nil {
		return len(tc.enc.Encode(s, nil, nil))
	}
	return (len(s) + 3) / 4
}
