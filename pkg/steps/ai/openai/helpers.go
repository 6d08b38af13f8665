package openai

import (
	"net/http"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
	go_openai "github.com/sashabaranov/go-openai"
)

func messagesToOpenAI(messages []conversation.Message) []go_openai.ChatCompletionMessage {
	ret := make([]go_openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range conversation.Conversation(messages).Replayed() {
		msg := go_openai.ChatCompletionMessage{Role: string(m.Role)}
		if !m.Content.IsMultimodal() {
			msg.Content = m.Content.Text
			ret = append(ret, msg)
			continue
		}

		parts := make([]go_openai.ChatMessagePart, 0, len(m.Content.Blocks))
		for _, b := range m.Content.Blocks {
			switch b.Type {
			case conversation.ContentTypeText:
				parts = append(parts, go_openai.ChatMessagePart{
					Type: go_openai.ChatMessagePartTypeText,
					Text: b.Text,
				})
			case conversation.ContentTypeImage:
				parts = append(parts, go_openai.ChatMessagePart{
					Type: go_openai.ChatMessagePartTypeImageURL,
					ImageURL: &go_openai.ChatMessageImageURL{
						URL:    b.Image,
						Detail: go_openai.ImageURLDetailAuto,
					},
				})
			}
		}
		msg.MultiContent = parts
		ret = append(ret, msg)
	}
	return ret
}

// anonymousTransport drops the empty bearer header go-openai adds when no API
// key is configured. Local servers get no Authorization header at all.
type anonymousTransport struct {
	base http.RoundTripper
}

func (t *anonymousTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer")) == "" {
		req = req.Clone(req.Context())
		req.Header.Del("Authorization")
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
