package settings

import (
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/claude"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/gemini"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/ollama"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings/openai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/huandu/go-clone"
)

const DefaultTemperature = 0.7

type StorageBackend string

const (
	StorageBackendBbolt  StorageBackend = "bbolt"
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendMemory StorageBackend = "memory"
)

type StorageSettings struct {
	Backend StorageBackend `yaml:"backend" json:"backend" jsonschema:"enum=bbolt,enum=sqlite,enum=memory,default=bbolt"`
	// Path of the database file. Empty means the default location in the
	// user's config directory.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// PromptSettings holds the system prompt templates. They are rendered with
// text/template and sprig; an empty value keeps the built-in prompt.
type PromptSettings struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Chat  string `yaml:"chat,omitempty" json:"chat,omitempty"`
	Agent string `yaml:"agent,omitempty" json:"agent,omitempty"`
}

type Settings struct {
	Provider    types.ApiType `yaml:"provider" json:"provider" jsonschema:"enum=local,enum=openai,enum=anthropic,enum=ollama,enum=gemini,enum=echo,default=local"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"minimum=0,maximum=2,default=0.7"`

	Local     *openai.Settings `yaml:"local,omitempty" json:"local,omitempty"`
	OpenAI    *openai.Settings `yaml:"openai,omitempty" json:"openai,omitempty"`
	Anthropic *claude.Settings `yaml:"anthropic,omitempty" json:"anthropic,omitempty"`
	Ollama    *ollama.Settings `yaml:"ollama,omitempty" json:"ollama,omitempty"`
	Gemini    *gemini.Settings `yaml:"gemini,omitempty" json:"gemini,omitempty"`

	Client    *ClientSettings  `yaml:"client,omitempty" json:"client,omitempty"`
	Storage   *StorageSettings `yaml:"storage,omitempty" json:"storage,omitempty"`
	Workspace string           `yaml:"workspace,omitempty" json:"workspace,omitempty"`
	Prompts   *PromptSettings  `yaml:"prompts,omitempty" json:"prompts,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{
		Provider:    types.ApiTypeLocal,
		Temperature: DefaultTemperature,
		Local:       openai.NewLocalSettings(),
		OpenAI:      openai.NewSettings(),
		Anthropic:   claude.NewSettings(),
		Ollama:      ollama.NewSettings(),
		Gemini:      gemini.NewSettings(),
		Client:      NewClientSettings(),
		Storage:     &StorageSettings{Backend: StorageBackendBbolt},
		Prompts:     &PromptSettings{},
	}
}

func (s *Settings) Clone() *Settings {
	var client *ClientSettings
	if s.Client != nil {
		client = s.Client.Clone()
	}
	shallow := *s
	shallow.Client = nil
	ret := clone.Clone(&shallow).(*Settings)
	ret.Client = client
	return ret
}

// ActiveModel returns the model configured for the selected provider.
func (s *Settings) ActiveModel() string {
	switch s.Provider {
	case types.ApiTypeLocal:
		return s.Local.Model
	case types.ApiTypeOpenAI:
		return s.OpenAI.Model
	case types.ApiTypeAnthropic:
		return s.Anthropic.Model
	case types.ApiTypeOllama:
		return s.Ollama.Model
	case types.ApiTypeGemini:
		return s.Gemini.Model
	}
	return ""
}

func (s *Settings) ActiveBaseURL() string {
	switch s.Provider {
	case types.ApiTypeLocal:
		return s.Local.BaseURL
	case types.ApiTypeOpenAI:
		return s.OpenAI.BaseURL
	case types.ApiTypeAnthropic:
		return s.Anthropic.BaseURL
	case types.ApiTypeOllama:
		return s.Ollama.BaseURL
	case types.ApiTypeGemini:
		return s.Gemini.BaseURL
	}
	return ""
}

func (s *Settings) ActiveAPIKey() string {
	switch s.Provider {
	case types.ApiTypeLocal:
		return s.Local.APIKey
	case types.ApiTypeOpenAI:
		return s.OpenAI.APIKey
	case types.ApiTypeAnthropic:
		return s.Anthropic.APIKey
	case types.ApiTypeGemini:
		return s.Gemini.APIKey
	case types.ApiTypeOllama:
	}
	return ""
}
