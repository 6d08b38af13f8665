package orchestrator

import (
	"sync"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// EstimateTokens counts cl100k_base tokens over the text of messages. It is
// an estimate for logging; images are not counted. Returns -1 when the codec
// is unavailable.
func EstimateTokens(messages []conversation.Message) int {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			log.Warn().Err(err).Msg("could not load tokenizer")
			return
		}
		codec = c
	})
	if codec == nil {
		return -1
	}

	total := 0
	for _, m := range messages {
		ids, _, err := codec.Encode(m.Content.String())
		if err != nil {
			return -1
		}
		total += len(ids)
	}
	return total
}
