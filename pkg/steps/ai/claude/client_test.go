package claude

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/claude/api"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	claude_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/claude"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := claude_settings.NewSettings()
	s.APIKey = "test-key"
	s.BaseURL = srv.URL
	return NewClient(s, settings.NewClientSettings(), 0.7)
}

func TestCompleteSendsMessagesRequest(t *testing.T) {
	var got api.MessageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"Hi "},{"type":"text","text":"there"}],"stop_reason":"end_turn"}`))
	})

	out, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleSystem, "be brief"),
		conversation.NewChatMessage(conversation.RoleAssistant, "Chat reset. How can I help you?"),
		conversation.NewChatMessage(conversation.RoleUser, "one"),
		conversation.NewChatMessage(conversation.RoleUser, "two"),
		{Role: conversation.RoleUser, Content: conversation.NewBlockContent(
			conversation.NewImageBlock("data:image/png;base64,AAA="),
		)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", out)

	assert.Equal(t, "be brief", got.System)
	assert.Equal(t, 4096, got.MaxTokens)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.7, *got.Temperature, 0.0001)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	require.Len(t, got.Messages[0].Content, 3)
	image := got.Messages[0].Content[2]
	assert.Equal(t, api.ContentTypeImage, image.Type)
	require.NotNil(t, image.Source)
	assert.Equal(t, "image/png", image.Source.MediaType)
	assert.Equal(t, "AAA=", image.Source.Data)
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	})
	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chat.ErrRequestFailed))
	assert.Contains(t, err.Error(), "invalid x-api-key")
	assert.Contains(t, err.Error(), "401")
}

func TestCompleteNoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	})
	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	assert.True(t, errors.Is(err, chat.ErrNoResponse))
}

func TestListModels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"id":"claude-3-5-sonnet-latest"},{"id":"claude-3-haiku"}]}`))
	})
	assert.Equal(t, []string{"claude-3-5-sonnet-latest", "claude-3-haiku"}, c.ListModels(context.Background()))
	assert.True(t, c.TestConnection(context.Background()))
}

func TestListModelsFailureIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Equal(t, []string{}, c.ListModels(context.Background()))
	assert.False(t, c.TestConnection(context.Background()))
}
