package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	gemini_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/gemini"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestMessagesToGemini(t *testing.T) {
	system, contents, err := messagesToGemini([]conversation.Message{
		conversation.NewChatMessage(conversation.RoleSystem, "sys"),
		conversation.NewChatMessage(conversation.RoleAssistant, "greeting"),
		conversation.NewChatMessage(conversation.RoleError, "Error: x"),
		{Role: conversation.RoleUser, Content: conversation.NewBlockContent(
			conversation.NewTextBlock("hi"),
			conversation.NewImageBlock("data:image/png;base64,AAA="),
		)},
	})
	require.NoError(t, err)
	require.NotNil(t, system)
	assert.Equal(t, "sys", system.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, string(genai.RoleModel), contents[0].Role)
	assert.Equal(t, string(genai.RoleUser), contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	require.NotNil(t, contents[1].Parts[1].InlineData)
	assert.Equal(t, "image/png", contents[1].Parts[1].InlineData.MIMEType)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := gemini_settings.NewSettings()
	s.APIKey = "test-key"
	s.BaseURL = srv.URL
	c, err := NewClient(context.Background(), s, settings.NewClientSettings(), 0.7)
	require.NoError(t, err)
	return c
}

func TestComplete(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-1.5-flash:generateContent"), r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"hello "},{"text":"world"}]}}]}`))
	})

	out, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleSystem, "sys"),
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
	assert.Contains(t, body, "systemInstruction")
}

func TestCompleteNoCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	})
	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	assert.True(t, errors.Is(err, chat.ErrNoResponse))
}

func TestCompleteError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})
	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chat.ErrRequestFailed))
	assert.Contains(t, err.Error(), "API key not valid")
}
