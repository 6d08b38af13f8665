package ollama

import "github.com/huandu/go-clone"

const DefaultBaseURL = "http://127.0.0.1:11434"

type Settings struct {
	BaseURL string `yaml:"base-url,omitempty" json:"base-url,omitempty"`
	Model   string `yaml:"model,omitempty" json:"model,omitempty"`
	NumCtx  *int   `yaml:"num-ctx,omitempty" json:"num-ctx,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{BaseURL: DefaultBaseURL}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}
