// Package factory builds the chat client for the configured provider.
package factory

import (
	"context"

	"github.com/go-go-golems/grillo/pkg/security"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/claude"
	"github.com/go-go-golems/grillo/pkg/steps/ai/gemini"
	"github.com/go-go-golems/grillo/pkg/steps/ai/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/rs/zerolog/log"
)

// NewClient returns the client for s.Provider. Unknown providers get a client
// whose Complete fails with chat.ErrProviderUnimplemented. An error is
// returned only for settings the provider cannot work with.
func NewClient(ctx context.Context, s *settings.Settings) (chat.Client, error) {
	s = s.Clone()
	if s.Client == nil {
		s.Client = settings.NewClientSettings()
	}

	if err := security.ValidateProviderURL(s.Provider, s.ActiveBaseURL(), s.Client.AllowInsecure); err != nil {
		return nil, err
	}

	log.Debug().
		Str("provider", string(s.Provider)).
		Str("model", s.ActiveModel()).
		Str("base_url", s.ActiveBaseURL()).
		Msg("creating chat client")

	switch s.Provider {
	case types.ApiTypeLocal:
		return openai.NewClient(types.ApiTypeLocal, s.Local, s.Client, s.Temperature), nil
	case types.ApiTypeOpenAI:
		return openai.NewClient(types.ApiTypeOpenAI, s.OpenAI, s.Client, s.Temperature), nil
	case types.ApiTypeAnthropic:
		return claude.NewClient(s.Anthropic, s.Client, s.Temperature), nil
	case types.ApiTypeOllama:
		return ollama.NewClient(s.Ollama, s.Client, s.Temperature)
	case types.ApiTypeGemini:
		return gemini.NewClient(ctx, s.Gemini, s.Client, s.Temperature)
	case types.ApiTypeEcho:
		return chat.NewEchoClient(), nil
	}

	log.Warn().Str("provider", string(s.Provider)).Msg("unknown provider")
	return &chat.UnimplementedClient{Provider: s.Provider}, nil
}
