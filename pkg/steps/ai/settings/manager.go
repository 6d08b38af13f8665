package settings

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Update is a user-driven change of the active provider configuration. Nil
// fields are left untouched.
type Update struct {
	Provider *types.ApiType `json:"provider,omitempty"`
	BaseURL  *string        `json:"baseUrl,omitempty"`
	APIKey   *string        `json:"apiKey,omitempty"`
}

// Manager reads settings from viper and writes user updates back to the
// config file.
type Manager struct {
	mu sync.Mutex
	v  *viper.Viper
	// fallbackPath is written when no config file was loaded.
	fallbackPath string
}

func NewManager(v *viper.Viper, fallbackPath string) *Manager {
	return &Manager{v: v, fallbackPath: fallbackPath}
}

func (m *Manager) Current() *Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FromViper(m.v)
}

// Apply updates the settings and persists them. The base URL and API key are
// applied to the provider that is active after the update.
func (m *Manager) Apply(u Update) (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	provider := types.ApiType(m.v.GetString(KeyProvider))
	if u.Provider != nil {
		if !u.Provider.IsKnown() {
			return nil, errors.Errorf("unknown provider %q", *u.Provider)
		}
		provider = *u.Provider
	}

	// validate everything before touching viper, a rejected update leaves the
	// settings as they were
	baseURLKey, hasBaseURL := baseURLKeys[provider]
	if u.BaseURL != nil && !hasBaseURL {
		return nil, errors.Errorf("provider %s has no configurable base URL", provider)
	}
	apiKeyKey, hasAPIKey := apiKeyKeys[provider]
	if u.APIKey != nil && !hasAPIKey {
		return nil, errors.Errorf("provider %s does not use an API key", provider)
	}

	if u.Provider != nil {
		m.v.Set(KeyProvider, string(provider))
	}
	if u.BaseURL != nil {
		m.v.Set(baseURLKey, *u.BaseURL)
	}
	if u.APIKey != nil {
		m.v.Set(apiKeyKey, *u.APIKey)
	}

	if err := m.persist(); err != nil {
		return nil, err
	}
	log.Info().Str("provider", string(provider)).Msg("updated settings")
	return FromViper(m.v), nil
}

func (m *Manager) persist() error {
	path := m.v.ConfigFileUsed()
	if path == "" {
		path = m.fallbackPath
	}
	if path == "" {
		log.Debug().Msg("no config file to persist settings to")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "could not create config directory")
	}
	if err := m.v.WriteConfigAs(path); err != nil {
		return errors.Wrapf(err, "could not write config file %s", path)
	}
	return nil
}

var baseURLKeys = map[types.ApiType]string{
	types.ApiTypeLocal:     KeyLocalBaseURL,
	types.ApiTypeOpenAI:    KeyOpenAIBaseURL,
	types.ApiTypeAnthropic: KeyAnthropicBaseURL,
	types.ApiTypeOllama:    KeyOllamaBaseURL,
	types.ApiTypeGemini:    KeyGeminiBaseURL,
}

var apiKeyKeys = map[types.ApiType]string{
	types.ApiTypeLocal:     KeyLocalAPIKey,
	types.ApiTypeOpenAI:    KeyOpenAIAPIKey,
	types.ApiTypeAnthropic: KeyAnthropicAPIKey,
	types.ApiTypeGemini:    KeyGeminiAPIKey,
}
