package chat

import (
	"context"
	"time"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
)

// EchoClient answers with the text of the last user message. It needs no
// backend and is handy for trying out the UI.
type EchoClient struct {
	Delay time.Duration
}

var _ Client = (*EchoClient)(nil)

func NewEchoClient() *EchoClient {
	return &EchoClient{}
}

func (e *EchoClient) ListModels(context.Context) []string {
	return []string{"echo"}
}

func (e *EchoClient) TestConnection(context.Context) bool {
	return true
}

func (e *EchoClient) Complete(ctx context.Context, messages []conversation.Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no input")
	}
	if e.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", NewRequestFailedError(types.ApiTypeEcho, 0, "", ctx.Err())
		case <-time.After(e.Delay):
		}
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == conversation.RoleUser {
			return messages[i].Content.String(), nil
		}
	}
	return "", NewNoResponseError(types.ApiTypeEcho, "no user message to echo")
}
