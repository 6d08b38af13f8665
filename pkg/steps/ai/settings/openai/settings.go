package openai

import (
	"github.com/huandu/go-clone"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// LocalDefaultBaseURL is where LM Studio listens out of the box.
const LocalDefaultBaseURL = "http://127.0.0.1:1234/v1"

// Settings configures an OpenAI-compatible endpoint. Both the hosted OpenAI
// API and local servers use it.
type Settings struct {
	APIKey  string `yaml:"api-key,omitempty" json:"api-key,omitempty"`
	Model   string `yaml:"model,omitempty" json:"model,omitempty"`
	BaseURL string `yaml:"base-url,omitempty" json:"base-url,omitempty"`
}

func NewSettings() *Settings {
	return &Settings{BaseURL: DefaultBaseURL}
}

func NewLocalSettings() *Settings {
	return &Settings{BaseURL: LocalDefaultBaseURL}
}

func (s *Settings) Clone() *Settings {
	return clone.Clone(s).(*Settings)
}
