package settings

import (
	"net/http"
	"time"

	"github.com/huandu/go-clone"
)

const DefaultTimeoutSeconds = 60

type ClientSettings struct {
	TimeoutSeconds int    `yaml:"timeout" json:"timeout" jsonschema:"default=60,minimum=1"`
	UserAgent      string `yaml:"user-agent,omitempty" json:"user-agent,omitempty"`
	// AllowInsecure permits plain http and private addresses for hosted
	// providers.
	AllowInsecure bool         `yaml:"allow-insecure,omitempty" json:"allow-insecure,omitempty"`
	HTTPClient    *http.Client `yaml:"-" json:"-"`
}

func NewClientSettings() *ClientSettings {
	return &ClientSettings{
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
}

func (cs *ClientSettings) Timeout() time.Duration {
	if cs == nil || cs.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(cs.TimeoutSeconds) * time.Second
}

// GetHTTPClient returns the injected client, or a new one honoring the
// configured timeout.
func (cs *ClientSettings) GetHTTPClient() *http.Client {
	if cs != nil && cs.HTTPClient != nil {
		return cs.HTTPClient
	}
	return &http.Client{Timeout: cs.Timeout()}
}

func (cs *ClientSettings) Clone() *ClientSettings {
	httpClient := cs.HTTPClient
	ret := clone.Clone(&ClientSettings{
		TimeoutSeconds: cs.TimeoutSeconds,
		UserAgent:      cs.UserAgent,
		AllowInsecure:  cs.AllowInsecure,
	}).(*ClientSettings)
	// the http client holds a transport with live connections, share it
	ret.HTTPClient = httpClient
	return ret
}
