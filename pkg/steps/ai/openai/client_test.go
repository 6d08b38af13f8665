package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	openai_settings "github.com/go-go-golems/grillo/pkg/steps/ai/settings/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Path          string
	Method        string
	Authorization string
	Body          map[string]interface{}
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			Path:          r.URL.Path,
			Method:        r.Method,
			Authorization: r.Header.Get("Authorization"),
		}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.Body)
		}
		reqs = append(reqs, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func newTestClient(apiType types.ApiType, baseURL string, apiKey string) *Client {
	return NewClient(apiType, &openai_settings.Settings{
		APIKey:  apiKey,
		Model:   "test-model",
		BaseURL: baseURL,
	}, settings.NewClientSettings(), 0.7)
}

func TestCompleteLocalSendsNoAuth(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"hello back"}}]}`)
	c := newTestClient(types.ApiTypeLocal, srv.URL+"/v1", "")

	out, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleSystem, "sys"),
		conversation.NewChatMessage(conversation.RoleError, "Error: old failure"),
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", out)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/chat/completions", req.Path)
	assert.Empty(t, req.Authorization)
	assert.Equal(t, "test-model", req.Body["model"])
	assert.InDelta(t, 0.7, req.Body["temperature"], 0.0001)

	messages := req.Body["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "hi", messages[1].(map[string]interface{})["content"])
}

func TestCompleteSendsZeroTemperature(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)
	c := NewClient(types.ApiTypeLocal, &openai_settings.Settings{
		Model:   "test-model",
		BaseURL: srv.URL,
	}, settings.NewClientSettings(), 0)

	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	require.NoError(t, err)

	require.Len(t, *reqs, 1)
	temperature, ok := (*reqs)[0].Body["temperature"]
	require.True(t, ok, "temperature missing from request")
	assert.InDelta(t, 0, temperature, 0.0001)
}

func TestCompleteOpenAISendsBearer(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)
	c := newTestClient(types.ApiTypeOpenAI, srv.URL, "sk-test")

	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", (*reqs)[0].Authorization)
}

func TestCompleteMultimodal(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"a cat"}}]}`)
	c := newTestClient(types.ApiTypeLocal, srv.URL, "")

	_, err := c.Complete(context.Background(), []conversation.Message{
		{Role: conversation.RoleUser, Content: conversation.NewBlockContent(
			conversation.NewTextBlock("hi"),
			conversation.NewImageBlock("data:image/png;base64,AAA="),
		)},
	})
	require.NoError(t, err)

	messages := (*reqs)[0].Body["messages"].([]interface{})
	content := messages[0].(map[string]interface{})["content"].([]interface{})
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]interface{})["type"])
	assert.Equal(t, "hi", content[0].(map[string]interface{})["text"])
	image := content[1].(map[string]interface{})
	assert.Equal(t, "image_url", image["type"])
	assert.Equal(t, "data:image/png;base64,AAA=", image["image_url"].(map[string]interface{})["url"])
}

func TestCompleteNoChoices(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"choices":[]}`)
	c := newTestClient(types.ApiTypeLocal, srv.URL, "")
	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	assert.True(t, errors.Is(err, chat.ErrNoResponse))
}

func TestCompleteErrorKeepsBackendMessage(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadRequest, `{"error":{"message":"model not loaded","type":"invalid_request_error"}}`)
	c := newTestClient(types.ApiTypeLocal, srv.URL, "")
	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chat.ErrRequestFailed))

	var chatErr *chat.Error
	require.True(t, errors.As(err, &chatErr))
	assert.Equal(t, http.StatusBadRequest, chatErr.StatusCode)
	assert.Equal(t, "model not loaded", chatErr.Detail)
}

func TestCompleteNonJSONError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, `upstream down`)
	c := newTestClient(types.ApiTypeLocal, srv.URL, "")
	_, err := c.Complete(context.Background(), []conversation.Message{
		conversation.NewChatMessage(conversation.RoleUser, "hi"),
	})
	var chatErr *chat.Error
	require.True(t, errors.As(err, &chatErr))
	assert.Equal(t, chat.ErrorKindRequestFailed, chatErr.Kind)
	assert.Equal(t, http.StatusBadGateway, chatErr.StatusCode)
}

func TestListModels(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"object":"list","data":[{"id":"llama-3"},{"id":"qwen"}]}`)
	c := newTestClient(types.ApiTypeLocal, srv.URL+"/v1", "")

	assert.Equal(t, []string{"llama-3", "qwen"}, c.ListModels(context.Background()))
	assert.Equal(t, http.MethodGet, (*reqs)[0].Method)
	assert.Equal(t, "/v1/models", (*reqs)[0].Path)
	assert.True(t, c.TestConnection(context.Background()))
}

func TestListModelsDegradesToEmpty(t *testing.T) {
	srv, _ := newServer(t, http.StatusInternalServerError, `nope`)
	c := newTestClient(types.ApiTypeOpenAI, srv.URL, "sk")
	assert.Equal(t, []string{}, c.ListModels(context.Background()))
	assert.False(t, c.TestConnection(context.Background()))

	unreachable := newTestClient(types.ApiTypeLocal, "http://127.0.0.1:1", "")
	assert.Equal(t, []string{}, unreachable.ListModels(context.Background()))
	assert.False(t, unreachable.TestConnection(context.Background()))
}
