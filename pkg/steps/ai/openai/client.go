package openai

import (
	"context"
	"math"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	openai_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

// Client talks to the OpenAI chat completions API or any server that mimics
// it. ApiTypeLocal sends no credentials.
type Client struct {
	apiType     types.ApiType
	model       string
	temperature float32
	client      *go_openai.Client
}

var _ chat.Client = (*Client)(nil)

func NewClient(
	apiType types.ApiType,
	s *openai_settings.Settings,
	clientSettings *settings.ClientSettings,
	temperature float64,
) *Client {
	httpClient := clientSettings.GetHTTPClient()
	if s.APIKey == "" {
		wrapped := *httpClient
		wrapped.Transport = &anonymousTransport{base: httpClient.Transport}
		httpClient = &wrapped
	}

	config := go_openai.DefaultConfig(s.APIKey)
	config.BaseURL = s.BaseURL
	config.HTTPClient = httpClient

	// go-openai omits a zero temperature from the request, the smallest
	// positive float keeps greedy sampling on the wire
	t := float32(temperature)
	if t == 0 {
		t = math.SmallestNonzeroFloat32
	}

	return &Client{
		apiType:     apiType,
		model:       s.Model,
		temperature: t,
		client:      go_openai.NewClientWithConfig(config),
	}
}

func (c *Client) ListModels(ctx context.Context) []string {
	models, err := c.client.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Str("provider", string(c.apiType)).Msg("could not list models")
		return []string{}
	}
	ret := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		ret = append(ret, m.ID)
	}
	return ret
}

func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.client.ListModels(ctx)
	if err != nil {
		log.Debug().Err(err).Str("provider", string(c.apiType)).Msg("connection test failed")
		return false
	}
	return true
}

func (c *Client) Complete(ctx context.Context, messages []conversation.Message) (string, error) {
	req := go_openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messagesToOpenAI(messages),
		Temperature: c.temperature,
	}
	log.Debug().
		Str("provider", string(c.apiType)).
		Str("model", c.model).
		Int("messages", len(req.Messages)).
		Msg("sending chat completion request")

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", chat.NewNoResponseError(c.apiType, "response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) wrapError(err error) error {
	var apiErr *go_openai.APIError
	if errors.As(err, &apiErr) {
		return chat.NewRequestFailedError(c.apiType, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *go_openai.RequestError
	if errors.As(err, &reqErr) {
		detail := ""
		if reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return chat.NewRequestFailedError(c.apiType, reqErr.HTTPStatusCode, detail, err)
	}
	return chat.NewRequestFailedError(c.apiType, 0, "", err)
}
