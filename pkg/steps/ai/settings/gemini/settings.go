package gemini

import "github.com/huandu/go-clone"

const DefaultModel = "gemini-1.5-flash"

type Settings struct {
	APIKey string `yaml:"api-key,omitempty" json:"api-key,omitempty"`
	Model  string `yaml:"model,omitempty" json:"model,omitempty"`
	// BaseURL overrides the Generative Language API endpoint.
	BaseURL string `yaml:"base-url,omitempty" json:"base-url,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{Model: DefaultModel}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}
