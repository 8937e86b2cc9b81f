package provider

import "fmt"

// Endpoint is the static description of how to reach a provider.
type Endpoint struct {
	BaseURL   string
	APIKeyEnv string
	Headers   map[string]string
}

// DefaultEndpoint returns the built-in endpoint for kind.
func DefaultEndpoint(kind Kind) (Endpoint, error) {
	switch kind {
	case Featherless:
		return Endpoint{
			BaseURL:   "https://api.featherless.ai/v1",
			APIKeyEnv: "FEATHERLESS_API_KEY",
		}, nil
	case OpenRouter:
		return Endpoint{
			BaseURL:   "https://openrouter.ai/api/v1",
			APIKeyEnv: "OPENROUTER_API_KEY",
			Headers: map[string]string{
				"HTTP-Referer": "http://localhost:8182",
				"X-Title":      "Debate Corner",
			},
		}, nil
	default:
		return Endpoint{}, fmt.Errorf("unknown provider: %q", kind)
	}
}
