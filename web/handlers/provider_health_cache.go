package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ForgottenHistory/Debate-Corner/internal/provider"
)

const (
	providerHealthCacheFilename = "debate-corner-provider-health.json"
	providerHealthCacheTTL      = 10 * time.Minute
)

// providerHealthCache remembers the last health check per provider,
// optionally persisting it so restarts do not re-probe every upstream.
type providerHealthCache struct {
	mu     sync.Mutex
	path   string
	ttl    time.Duration
	loaded bool
	data   map[string]provider.HealthStatus
}

func newProviderHealthCache(path string, ttl time.Duration) *providerHealthCache {
	if ttl <= 0 {
		ttl = providerHealthCacheTTL
	}
	return &providerHealthCache{
		path: path,
		ttl:  ttl,
		data: make(map[string]provider.HealthStatus),
	}
}

func defaultProviderHealthCachePath() string {
	return filepath.Join(os.TempDir(), providerHealthCacheFilename)
}

// Get returns the cached status when it is younger than the TTL. Failed
// checks are returned too so callers can show the last error.
func (c *providerHealthCache) Get(name string) (provider.HealthStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLoaded()
	status, ok := c.data[name]
	if !ok || status.CheckedAt.IsZero() {
		return provider.HealthStatus{}, false
	}
	if time.Since(status.CheckedAt) > c.ttl {
		return provider.HealthStatus{}, false
	}
	return status, true
}

func (c *providerHealthCache) Set(name string, status provider.HealthStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLoaded()
	c.data[name] = status
	c.persist()
}

func (c *providerHealthCache) ensureLoaded() {
	if c.loaded || c.path == "" {
		return
	}
	c.loaded = true

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read provider health cache", "path", c.path, "error", err)
		}
		return
	}

	if err := json.Unmarshal(data, &c.data); err != nil {
		slog.Warn("Failed to parse provider health cache", "path", c.path, "error", err)
		c.data = make(map[string]provider.HealthStatus)
	}
}

func (c *providerHealthCache) persist() {
	if c.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		slog.Warn("Failed to create provider health cache directory", "path", c.path, "error", err)
		return
	}

	payload, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode provider health cache", "path", c.path, "error", err)
		return
	}

	if err := os.WriteFile(c.path, payload, 0o644); err != nil {
		slog.Warn("Failed to write provider health cache", "path", c.path, "error", err)
	}
}

type providerInfo struct {
	Name   string                 `json:"name"`
	Health *provider.HealthStatus `json:"health,omitempty"`
}

// handleProviders lists the enabled providers with any cached health.
func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	names := h.debates.Providers().Names()
	result := make([]providerInfo, 0, len(names))
	for _, name := range names {
		info := providerInfo{Name: name}
		if status, ok := h.health.Get(name); ok {
			info.Health = &status
		}
		result = append(result, info)
	}
	h.json(w, http.StatusOK, result)
}

// handleProviderHealth returns the cached health of one provider, checking
// it again when the cache is stale or ?refresh=true is given.
func (h *Handler) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, err := h.debates.Providers().Get(name)
	if err != nil {
		h.jsonError(w, http.StatusNotFound, "Unknown provider", err.Error())
		return
	}

	if r.URL.Query().Get("refresh") != "true" {
		if status, ok := h.health.Get(name); ok {
			h.json(w, http.StatusOK, status)
			return
		}
	}

	status := p.HealthCheck(r.Context())
	h.health.Set(name, status)
	slog.Debug("Provider health checked", "provider", name, "available", status.Available, "duration", status.ResponseTime)
	h.json(w, http.StatusOK, status)
}
