package gemini

import (
	"context"
	"strings"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	gemini_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/gemini"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

type Client struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ chat.Client = (*Client)(nil)

func NewClient(ctx context.Context, s *gemini_settings.Settings, clientSettings *settings.ClientSettings, temperature float64) (*Client, error) {
	config := &genai.ClientConfig{
		APIKey:     s.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: clientSettings.GetHTTPClient(),
	}
	if s.BaseURL != "" {
		config.HTTPOptions.BaseURL = s.BaseURL
	}
	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}
	return &Client{
		client:      client,
		model:       s.Model,
		temperature: float32(temperature),
	}, nil
}

func (c *Client) ListModels(ctx context.Context) []string {
	page, err := c.client.Models.List(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("could not list gemini models")
		return []string{}
	}
	ret := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		ret = append(ret, strings.TrimPrefix(m.Name, "models/"))
	}
	return ret
}

func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	return err == nil
}

func (c *Client) Complete(ctx context.Context, messages []conversation.Message) (string, error) {
	system, contents, err := messagesToGemini(messages)
	if err != nil {
		return "", chat.NewRequestFailedError(types.ApiTypeGemini, 0, "", err)
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if system != nil {
		config.SystemInstruction = system
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", chat.NewRequestFailedError(types.ApiTypeGemini, apiErr.Code, apiErr.Message, err)
		}
		return "", chat.NewRequestFailedError(types.ApiTypeGemini, 0, "", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		detail := ""
		if resp != nil && resp.PromptFeedback != nil {
			detail = string(resp.PromptFeedback.BlockReason)
		}
		return "", chat.NewNoResponseError(types.ApiTypeGemini, detail)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return sb.String(), nil
}

// messagesToGemini maps system messages to the system instruction and the
// assistant role to Gemini's "model" role.
func messagesToGemini(messages []conversation.Message) (*genai.Content, []*genai.Content, error) {
	var systemParts []*genai.Part
	contents := []*genai.Content{}

	for _, m := range conversation.Conversation(messages).Replayed() {
		parts, err := partsOf(m.Content)
		if err != nil {
			return nil, nil, err
		}
		switch m.Role {
		case conversation.RoleSystem:
			systemParts = append(systemParts, parts...)
		case conversation.RoleAssistant:
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
		case conversation.RoleUser:
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
		case conversation.RoleError:
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = genai.NewContentFromParts(systemParts, genai.RoleUser)
	}
	return system, contents, nil
}

func partsOf(c conversation.Content) ([]*genai.Part, error) {
	if !c.IsMultimodal() {
		return []*genai.Part{genai.NewPartFromText(c.Text)}, nil
	}
	ret := make([]*genai.Part, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		switch b.Type {
		case conversation.ContentTypeText:
			ret = append(ret, genai.NewPartFromText(b.Text))
		case conversation.ContentTypeImage:
			mediaType, data, err := conversation.ParseDataURI(b.Image)
			if err != nil {
				return nil, errors.Wrap(err, "could not convert image block")
			}
			ret = append(ret, genai.NewPartFromBytes(data, mediaType))
		}
	}
	return ret, nil
}
