// Package ledger keeps an audit log of upstream completion calls.
// It records call metadata only; debate content is never stored.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/provider"
)

// Entry is one recorded upstream call.
type Entry struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model,omitempty"`
	StatusCode int       `json:"status_code"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProviderSummary aggregates the entries for one provider.
type ProviderSummary struct {
	Provider      string  `json:"provider"`
	Calls         int     `json:"calls"`
	Failures      int     `json:"failures"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// Ledger defines the interface for call persistence.
type Ledger interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	Record(entry *Entry) error
	Recent(limit int) ([]*Entry, error)
	Summary() ([]*ProviderSummary, error)
}

// Recorder adapts a Ledger to provider.Recorder. Write failures are logged
// and never reach the caller of the upstream request.
type Recorder struct {
	store Ledger
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Ledger) *Recorder {
	return &Recorder{store: store}
}

// RecordCall implements provider.Recorder.
func (r *Recorder) RecordCall(ctx context.Context, call provider.Call) {
	entry := &Entry{
		ID:         call.ID,
		Operation:  call.Operation,
		Provider:   call.Provider,
		Model:      call.Model,
		StatusCode: call.StatusCode,
		DurationMs: call.Duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if entry.ID == "" {
		entry.ID = core.NewID()
	}
	if call.Err != nil {
		entry.Error = call.Err.Error()
	}

	if err := r.store.Record(entry); err != nil {
		slog.WarnContext(ctx, "Failed to record upstream call", "operation", call.Operation, "error", err)
	}
}
