package ollama

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	ollama_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Client uses Ollama's native chat endpoint, which takes images as raw bytes
// next to the message text.
type Client struct {
	client      *api.Client
	model       string
	temperature float64
	numCtx      *int
}

var _ chat.Client = (*Client)(nil)

func NewClient(s *ollama_settings.Settings, clientSettings *settings.ClientSettings, temperature float64) (*Client, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ollama base URL %q", s.BaseURL)
	}
	return &Client{
		client:      api.NewClient(base, clientSettings.GetHTTPClient()),
		model:       s.Model,
		temperature: temperature,
		numCtx:      s.NumCtx,
	}, nil
}

func (c *Client) ListModels(ctx context.Context) []string {
	resp, err := c.client.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not list ollama models")
		return []string{}
	}
	ret := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		ret = append(ret, m.Name)
	}
	return ret
}

func (c *Client) TestConnection(ctx context.Context) bool {
	return c.client.Heartbeat(ctx) == nil
}

func (c *Client) Complete(ctx context.Context, messages []conversation.Message) (string, error) {
	ollamaMessages, err := messagesToOllama(messages)
	if err != nil {
		return "", chat.NewRequestFailedError(types.ApiTypeOllama, 0, "", err)
	}

	stream := false
	options := map[string]interface{}{
		"temperature": c.temperature,
	}
	if c.numCtx != nil {
		options["num_ctx"] = *c.numCtx
	}
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: ollamaMessages,
		Stream:   &stream,
		Options:  options,
	}

	var sb strings.Builder
	received := false
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		received = true
		sb.WriteString(resp.Message.Content)
		if resp.Done {
			log.Debug().
				Str("model", resp.Model).
				Str("done_reason", resp.DoneReason).
				Int("eval_count", resp.EvalCount).
				Msg("ollama response")
		}
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", chat.NewRequestFailedError(types.ApiTypeOllama, statusErr.StatusCode, statusErr.ErrorMessage, err)
		}
		return "", chat.NewRequestFailedError(types.ApiTypeOllama, 0, "", err)
	}
	if !received {
		return "", chat.NewNoResponseError(types.ApiTypeOllama, "empty response stream")
	}
	return sb.String(), nil
}

func messagesToOllama(messages []conversation.Message) ([]api.Message, error) {
	ret := make([]api.Message, 0, len(messages))
	for _, m := range conversation.Conversation(messages).Replayed() {
		msg := api.Message{Role: string(m.Role)}
		if !m.Content.IsMultimodal() {
			msg.Content = m.Content.Text
			ret = append(ret, msg)
			continue
		}
		var texts []string
		for _, b := range m.Content.Blocks {
			switch b.Type {
			case conversation.ContentTypeText:
				texts = append(texts, b.Text)
			case conversation.ContentTypeImage:
				_, data, err := conversation.ParseDataURI(b.Image)
				if err != nil {
					return nil, errors.Wrap(err, "could not convert image block")
				}
				msg.Images = append(msg.Images, api.ImageData(data))
			}
		}
		msg.Content = strings.Join(texts, "\n\n")
		ret = append(ret, msg)
	}
	return ret, nil
}
