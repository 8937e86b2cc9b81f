package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HealthStatus represents the result of a provider health check.
type HealthStatus struct {
	Available    bool          `json:"available"`
	ResponseTime time.Duration `json:"response_time"`
	Models       int           `json:"models"`
	Error        string        `json:"error,omitempty"`
	CheckedAt    time.Time     `json:"checked_at"`
}

const healthCheckTimeout = 15 * time.Second

// HealthCheck lists the provider's models to confirm the endpoint answers
// and the API key is accepted.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if c.apiKey == "" {
		return HealthStatus{
			Available: false,
			Error:     "api key not configured",
			CheckedAt: time.Now(),
		}
	}

	models, status, err := c.listModels(ctx)
	c.finish(ctx, "health_check", "", start, status, err)
	elapsed := time.Since(start)
	if err != nil {
		return HealthStatus{
			Available:    false,
			ResponseTime: elapsed,
			Error:        err.Error(),
			CheckedAt:    time.Now(),
		}
	}
	if status != http.StatusOK || len(models) == 0 {
		return HealthStatus{
			Available:    false,
			ResponseTime: elapsed,
			Error:        fmt.Sprintf("empty model catalog (status %d)", status),
			CheckedAt:    time.Now(),
		}
	}

	return HealthStatus{
		Available:    true,
		ResponseTime: elapsed,
		Models:       len(models),
		CheckedAt:    time.Now(),
	}
}
