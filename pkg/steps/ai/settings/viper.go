package settings

import (
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/claude"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/gemini"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/spf13/viper"
)

const (
	KeyProvider    = "provider"
	KeyTemperature = "temperature"

	KeyLocalBaseURL = "local.base-url"
	KeyLocalModel   = "local.model"
	KeyLocalAPIKey  = "local.api-key"

	KeyOpenAIAPIKey  = "openai.api-key"
	KeyOpenAIModel   = "openai.model"
	KeyOpenAIBaseURL = "openai.base-url"

	KeyAnthropicAPIKey    = "anthropic.api-key"
	KeyAnthropicModel     = "anthropic.model"
	KeyAnthropicBaseURL   = "anthropic.base-url"
	KeyAnthropicMaxTokens = "anthropic.max-tokens"

	KeyOllamaBaseURL = "ollama.base-url"
	KeyOllamaModel   = "ollama.model"

	KeyGeminiAPIKey  = "gemini.api-key"
	KeyGeminiModel   = "gemini.model"
	KeyGeminiBaseURL = "gemini.base-url"

	KeyClientTimeout       = "client.timeout"
	KeyClientUserAgent     = "client.user-agent"
	KeyClientAllowInsecure = "client.allow-insecure"

	KeyStorageBackend = "storage.backend"
	KeyStoragePath    = "storage.path"

	KeyWorkspace = "workspace"

	KeyPromptName  = "prompts.name"
	KeyPromptChat  = "prompts.chat"
	KeyPromptAgent = "prompts.agent"
)

// SetDefaults registers the default value of every settings key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProvider, string(types.ApiTypeLocal))
	v.SetDefault(KeyTemperature, DefaultTemperature)
	v.SetDefault(KeyLocalBaseURL, openai.LocalDefaultBaseURL)
	v.SetDefault(KeyOpenAIBaseURL, openai.DefaultBaseURL)
	v.SetDefault(KeyAnthropicModel, claude.DefaultModel)
	v.SetDefault(KeyAnthropicBaseURL, claude.DefaultBaseURL)
	v.SetDefault(KeyAnthropicMaxTokens, claude.DefaultMaxTokens)
	v.SetDefault(KeyOllamaBaseURL, ollama.DefaultBaseURL)
	v.SetDefault(KeyGeminiModel, gemini.DefaultModel)
	v.SetDefault(KeyClientTimeout, DefaultTimeoutSeconds)
	v.SetDefault(KeyStorageBackend, string(StorageBackendBbolt))
}

// FromViper reads the settings from v. Keys that are not set anywhere fall
// back to the defaults of NewSettings.
func FromViper(v *viper.Viper) *Settings {
	s := NewSettings()

	stringKey := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	if v.IsSet(KeyProvider) {
		s.Provider = types.ApiType(v.GetString(KeyProvider))
	}
	if v.IsSet(KeyTemperature) {
		s.Temperature = v.GetFloat64(KeyTemperature)
	}

	stringKey(KeyLocalBaseURL, &s.Local.BaseURL)
	stringKey(KeyLocalModel, &s.Local.Model)
	stringKey(KeyLocalAPIKey, &s.Local.APIKey)

	stringKey(KeyOpenAIAPIKey, &s.OpenAI.APIKey)
	stringKey(KeyOpenAIModel, &s.OpenAI.Model)
	stringKey(KeyOpenAIBaseURL, &s.OpenAI.BaseURL)

	stringKey(KeyAnthropicAPIKey, &s.Anthropic.APIKey)
	stringKey(KeyAnthropicModel, &s.Anthropic.Model)
	stringKey(KeyAnthropicBaseURL, &s.Anthropic.BaseURL)
	if v.IsSet(KeyAnthropicMaxTokens) {
		s.Anthropic.MaxTokens = v.GetInt(KeyAnthropicMaxTokens)
	}

	stringKey(KeyOllamaBaseURL, &s.Ollama.BaseURL)
	stringKey(KeyOllamaModel, &s.Ollama.Model)

	stringKey(KeyGeminiAPIKey, &s.Gemini.APIKey)
	stringKey(KeyGeminiModel, &s.Gemini.Model)
	stringKey(KeyGeminiBaseURL, &s.Gemini.BaseURL)

	if v.IsSet(KeyClientTimeout) {
		s.Client.TimeoutSeconds = v.GetInt(KeyClientTimeout)
	}
	stringKey(KeyClientUserAgent, &s.Client.UserAgent)
	if v.IsSet(KeyClientAllowInsecure) {
		s.Client.AllowInsecure = v.GetBool(KeyClientAllowInsecure)
	}

	if v.IsSet(KeyStorageBackend) {
		s.Storage.Backend = StorageBackend(v.GetString(KeyStorageBackend))
	}
	stringKey(KeyStoragePath, &s.Storage.Path)
	stringKey(KeyWorkspace, &s.Workspace)

	stringKey(KeyPromptName, &s.Prompts.Name)
	stringKey(KeyPromptChat, &s.Prompts.Chat)
	stringKey(KeyPromptAgent, &s.Prompts.Agent)

	return s
}
