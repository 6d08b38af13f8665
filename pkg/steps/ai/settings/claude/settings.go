package claude

import "github.com/huandu/go-clone"

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultMaxTokens = 4096
)

type Settings struct {
	APIKey    string `yaml:"api-key,omitempty" json:"api-key,omitempty"`
	Model     string `yaml:"model,omitempty" json:"model,omitempty"`
	BaseURL   string `yaml:"base-url,omitempty" json:"base-url,omitempty"`
	MaxTokens int    `yaml:"max-tokens,omitempty" json:"max-tokens,omitempty" jsonschema:"default=4096"`
}

func NewSettings() *Settings {
	return &Settings{
		Model:     DefaultModel,
		BaseURL:   DefaultBaseURL,
		MaxTokens: DefaultMaxTokens,
	}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}
