package chat

import (
	"context"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
)

// Client is the capability every provider variant implements.
type Client interface {
	// ListModels never fails. Unsupported providers and unreachable
	// backends return an empty list.
	ListModels(ctx context.Context) []string
	// TestConnection is a best-effort reachability probe.
	TestConnection(ctx context.Context) bool
	// Complete sends the conversation and returns the content of the top
	// candidate. It makes a single attempt; failures are *Error values.
	Complete(ctx context.Context, messages []conversation.Message) (string, error)
}

// UnimplementedClient stands in for a provider with no translation.
type UnimplementedClient struct {
	Provider types.ApiType
}

var _ Client = (*UnimplementedClient)(nil)

func (u *UnimplementedClient) ListModels(context.Context) []string {
	return []string{}
}

func (u *UnimplementedClient) TestConnection(context.Context) bool {
	return false
}

func (u *UnimplementedClient) Complete(context.Context, []conversation.Message) (string, error) {
	return "", NewProviderUnimplementedError(u.Provider)
}
