package claude

import (
	"context"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/claude/api"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	claude_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/claude"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Client struct {
	api         *api.Client
	model       string
	maxTokens   int
	temperature float64
}

var _ chat.Client = (*Client)(nil)

func NewClient(s *claude_settings.Settings, clientSettings *settings.ClientSettings, temperature float64) *Client {
	apiClient := api.NewClient(clientSettings.GetHTTPClient(), s.APIKey, s.BaseURL)
	apiClient.UserAgent = clientSettings.UserAgent
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claude_settings.DefaultMaxTokens
	}
	return &Client{
		api:         apiClient,
		model:       s.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (c *Client) ListModels(ctx context.Context) []string {
	models, err := c.api.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not list anthropic models")
		return []string{}
	}
	ret := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		ret = append(ret, m.ID)
	}
	return ret
}

func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.api.ListModels(ctx)
	return err == nil
}

func (c *Client) Complete(ctx context.Context, messages []conversation.Message) (string, error) {
	system, claudeMessages, err := messagesToClaude(messages)
	if err != nil {
		return "", chat.NewRequestFailedError(types.ApiTypeAnthropic, 0, "", err)
	}
	temperature := c.temperature
	req := &api.MessageRequest{
		Model:       c.model,
		Messages:    claudeMessages,
		System:      system,
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	}

	resp, err := c.api.SendMessage(ctx, req)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return "", chat.NewRequestFailedError(types.ApiTypeAnthropic, apiErr.StatusCode, apiErr.Message, err)
		}
		return "", chat.NewRequestFailedError(types.ApiTypeAnthropic, 0, "", err)
	}
	log.Debug().
		Str("model", resp.Model).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Str("stop_reason", resp.StopReason).
		Msg("anthropic response")

	if len(resp.Content) == 0 {
		return "", chat.NewNoResponseError(types.ApiTypeAnthropic, "response contained no content blocks")
	}
	return resp.Text(), nil
}
