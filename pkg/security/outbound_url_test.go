package security

import (
	"testing"

	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/stretchr/testify/assert"
)

func TestValidateOutboundURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		opts    OutboundURLOptions
		wantErr bool
	}{
		{"https public", "https://api.openai.com/v1", OutboundURLOptions{}, false},
		{"http rejected", "http://api.openai.com/v1", OutboundURLOptions{}, true},
		{"http allowed", "http://api.openai.com/v1", OutboundURLOptions{AllowHTTP: true}, false},
		{"ftp rejected", "ftp://example.com", OutboundURLOptions{AllowHTTP: true}, true},
		{"missing host", "https:///v1", OutboundURLOptions{}, true},
		{"localhost rejected", "https://localhost:1234", OutboundURLOptions{}, true},
		{"loopback rejected", "https://127.0.0.1:1234", OutboundURLOptions{}, true},
		{"private rejected", "https://192.168.1.10", OutboundURLOptions{}, true},
		{"loopback allowed", "http://127.0.0.1:1234/v1", OutboundURLOptions{AllowHTTP: true, AllowLocalNetworks: true}, false},
		{"unspecified always rejected", "http://0.0.0.0:1234", OutboundURLOptions{AllowHTTP: true, AllowLocalNetworks: true}, true},
		{"zoned ipv6 rejected", "https://[fe80::1%25eth0]/", OutboundURLOptions{}, true},
		{"zoned ipv6 allowed locally", "https://[fe80::1%25eth0]/", OutboundURLOptions{AllowLocalNetworks: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutboundURL(tt.url, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProviderURL(t *testing.T) {
	assert.NoError(t, ValidateProviderURL(types.ApiTypeLocal, "http://127.0.0.1:1234/v1", false))
	assert.NoError(t, ValidateProviderURL(types.ApiTypeOllama, "http://localhost:11434", false))
	assert.NoError(t, ValidateProviderURL(types.ApiTypeOpenAI, "", false))
	assert.Error(t, ValidateProviderURL(types.ApiTypeOpenAI, "http://127.0.0.1:8080", false))
	assert.NoError(t, ValidateProviderURL(types.ApiTypeOpenAI, "http://127.0.0.1:8080", true))
	assert.Error(t, ValidateProviderURL(types.ApiTypeAnthropic, "http://api.anthropic.com", false))
}
