// Package provider talks to OpenAI-compatible chat-completion services.
package provider

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
)

// Kind identifies an upstream completion service.
type Kind string

const (
	Featherless Kind = "featherless"
	OpenRouter  Kind = "openrouter"
)

// Kinds returns every supported provider kind.
func Kinds() []Kind {
	return []Kind{Featherless, OpenRouter}
}

// ParseKind validates a provider name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if !slices.Contains(Kinds(), k) {
		return "", fmt.Errorf("unknown provider: %q", name)
	}
	return k, nil
}

// Model is one entry of a provider's model catalog.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// Request is one chat-completion call.
type Request struct {
	Model    string
	Messages []core.Message
	Sampling core.SamplingParams
}

// Provider defines the interface for completion services.
type Provider interface {
	// Name returns the provider's identifier.
	Name() string

	// ListModels returns the model catalog. It never fails; problems are
	// logged and an empty list is returned.
	ListModels(ctx context.Context) []Model

	// Generate returns the full completion text.
	Generate(ctx context.Context, req Request) (string, error)

	// GenerateStream returns the raw event-stream body. The caller must
	// close it.
	GenerateStream(ctx context.Context, req Request) (io.ReadCloser, error)

	// HealthCheck reports whether the service is reachable and authorized.
	HealthCheck(ctx context.Context) HealthStatus
}

// Registry manages the configured providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
