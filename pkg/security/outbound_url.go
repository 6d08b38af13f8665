package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/go-go-golems/grillo/pkg/steps/ai/types"
	"github.com/pkg/errors"
)

// OutboundURLOptions configures outbound request URL validation.
type OutboundURLOptions struct {
	// AllowHTTP permits plain HTTP URLs. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback/private/link-local IP targets and localhost hostnames.
	AllowLocalNetworks bool
}

// OptionsForProvider returns the policy for a provider's base URL. Local
// providers are expected on loopback over plain http; hosted providers must
// use https on a public address unless allowInsecure is set.
func OptionsForProvider(apiType types.ApiType, allowInsecure bool) OutboundURLOptions {
	if apiType.IsLocal() || allowInsecure {
		return OutboundURLOptions{AllowHTTP: true, AllowLocalNetworks: true}
	}
	return OutboundURLOptions{}
}

// ValidateProviderURL checks the base URL a provider client will talk to. An
// empty URL is accepted and means the client's built-in default.
func ValidateProviderURL(apiType types.ApiType, rawURL string, allowInsecure bool) error {
	if rawURL == "" {
		return nil
	}
	if err := ValidateOutboundURL(rawURL, OptionsForProvider(apiType, allowInsecure)); err != nil {
		return errors.Wrapf(err, "invalid %s base URL", apiType)
	}
	return nil
}

// ValidateOutboundURL rejects unsafe schemes and local-network targets unless
// explicitly allowed.
func ValidateOutboundURL(rawURL string, opts OutboundURLOptions) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !opts.AllowHTTP {
			return errors.New("http scheme is not allowed")
		}
	default:
		return errors.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.New("URL host is required")
	}

	if !opts.AllowLocalNetworks {
		if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
			return errors.Errorf("local hostname %q is not allowed", host)
		}
	}

	// IP literals are checked without DNS lookups.
	if addr, err := netip.ParseAddr(host); err == nil {
		if addr.Zone() != "" && !opts.AllowLocalNetworks {
			return errors.Errorf("zoned IP address %q is not allowed", host)
		}
		addr = addr.Unmap()

		if addr.IsUnspecified() || addr.IsMulticast() {
			return errors.Errorf("disallowed IP address %q", host)
		}

		if !opts.AllowLocalNetworks {
			if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
				return errors.Errorf("local network IP %q is not allowed", host)
			}
		}
	}

	return nil
}
