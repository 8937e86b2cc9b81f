// Package handlers provides the HTTP API consumed by the debate UI.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ForgottenHistory/Debate-Corner/internal/core"
	"github.com/ForgottenHistory/Debate-Corner/internal/debate"
	"github.com/ForgottenHistory/Debate-Corner/internal/export"
	"github.com/ForgottenHistory/Debate-Corner/internal/ledger"
	"github.com/ForgottenHistory/Debate-Corner/internal/personality"
	"github.com/ForgottenHistory/Debate-Corner/internal/provider"
)

// maxBodyBytes bounds request bodies; transcripts are small.
const maxBodyBytes = 1 << 20

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	debates *debate.Service
	ledger  ledger.Ledger
	health  *providerHealthCache
}

// Option configures a Handler.
type Option func(*Handler)

// WithLedger exposes recorded upstream calls under /api/usage.
func WithLedger(l ledger.Ledger) Option {
	return func(h *Handler) {
		h.ledger = l
	}
}

// WithHealthCachePath sets where provider health results are persisted.
// An empty path keeps them in memory only.
func WithHealthCachePath(path string) Option {
	return func(h *Handler) {
		h.health = newProviderHealthCache(path, providerHealthCacheTTL)
	}
}

// New creates a new Handler.
func New(svc *debate.Service, opts ...Option) *Handler {
	h := &Handler{
		debates: svc,
		health:  newProviderHealthCache(defaultProviderHealthCachePath(), providerHealthCacheTTL),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router serving the API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h.json(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", h.handleModels)
		r.Post("/debate", h.handleDebate)
		r.Post("/debate/stream", h.handleDebateStream)
		r.Post("/judge", h.handleJudge)
		r.Get("/personalities", h.handlePersonalities)
		r.Get("/judge-personalities", h.handleJudgePersonalities)
		r.Post("/export/{format}", h.handleExport)
		r.Get("/usage", h.handleUsage)
		r.Get("/providers", h.handleProviders)
		r.Get("/providers/{name}/health", h.handleProviderHealth)
	})

	return r
}

// requestLogger logs one line per request with its id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// turnRequest is the body of /api/debate and /api/debate/stream.
type turnRequest struct {
	Model          string            `json:"model"`
	Position       core.Side         `json:"position"`
	Topic          string            `json:"topic"`
	DebateHistory  []core.DebateTurn `json:"debateHistory"`
	TurnType       core.TurnKind     `json:"turnType"`
	Round          int               `json:"round"`
	ResponseLength core.LengthTier   `json:"responseLength"`
	Personality    string            `json:"personality"`
	Provider       string            `json:"provider"`
	core.SamplingParams
}

func (t turnRequest) generation() core.GenerationRequest {
	return core.GenerationRequest{
		Model:         t.Model,
		Side:          t.Position,
		Topic:         t.Topic,
		PriorTurns:    t.DebateHistory,
		TurnKind:      t.TurnType,
		Round:         t.Round,
		Length:        t.ResponseLength,
		PersonalityID: t.Personality,
		Sampling:      t.SamplingParams,
		Provider:      t.Provider,
	}
}

// judgeRequest is the body of /api/judge.
type judgeRequest struct {
	Model             string            `json:"model"`
	Topic             string            `json:"topic"`
	DebateHistory     []core.DebateTurn `json:"debateHistory"`
	UsedPersonalities []string          `json:"usedPersonalities"`
	Provider          string            `json:"provider"`
	JudgeNumber       int               `json:"judgeNumber"`
	core.SamplingParams
}

type judgeResponse struct {
	Winner        core.Winner `json:"winner"`
	Reasoning     string      `json:"reasoning"`
	Personality   string      `json:"personality"`
	PersonalityID string      `json:"personalityId"`
}

type personalityDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.debates.ListModels(r.Context(), r.URL.Query().Get("provider"))
	if err != nil {
		h.fail(w, "Failed to list models", err)
		return
	}
	h.json(w, http.StatusOK, models)
}

func (h *Handler) handleDebate(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !h.decode(w, r, &req) {
		return
	}

	content, err := h.debates.GenerateTurn(r.Context(), req.generation())
	if err != nil {
		h.fail(w, "Failed to generate debate response", err)
		return
	}
	h.json(w, http.StatusOK, map[string]string{"content": content})
}

func (h *Handler) handleJudge(w http.ResponseWriter, r *http.Request) {
	var req judgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := h.debates.Judge(r.Context(), debate.JudgeRequest{
		Provider:          req.Provider,
		Model:             req.Model,
		Topic:             req.Topic,
		Transcript:        req.DebateHistory,
		UsedPersonalities: req.UsedPersonalities,
		Sampling:          req.SamplingParams,
		JudgeIndex:        req.JudgeNumber,
	})
	if err != nil {
		h.fail(w, "Failed to generate judge evaluation", err)
		return
	}
	h.json(w, http.StatusOK, judgeResponse{
		Winner:        v.Winner,
		Reasoning:     v.Reasoning,
		Personality:   v.Personality,
		PersonalityID: v.PersonalityID,
	})
}

func (h *Handler) handlePersonalities(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, describe(h.debates.Debaters().List()))
}

func (h *Handler) handleJudgePersonalities(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, describe(h.debates.Judges().List()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	exporter, err := export.GetExporter(export.Format(chi.URLParam(r, "format")))
	if err != nil {
		h.jsonError(w, http.StatusBadRequest, "Unsupported export format", err.Error())
		return
	}

	var d core.Debate
	if !h.decode(w, r, &d) {
		return
	}
	if d.Topic == "" {
		h.jsonError(w, http.StatusBadRequest, "Invalid debate", "topic is required")
		return
	}
	if err := core.ValidateTranscript(d.Turns); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid debate", err.Error())
		return
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	var buf bytes.Buffer
	if err := exporter.Export(&d, &buf); err != nil {
		h.fail(w, "Failed to export debate", err)
		return
	}

	filename := export.GenerateFilename(&d, exporter.FileExtension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Write(buf.Bytes())
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		h.jsonError(w, http.StatusNotFound, "Usage ledger is disabled", "")
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.jsonError(w, http.StatusBadRequest, "Invalid limit", s)
			return
		}
		limit = n
	}

	entries, err := h.ledger.Recent(limit)
	if err != nil {
		h.fail(w, "Failed to read usage", err)
		return
	}
	summary, err := h.ledger.Summary()
	if err != nil {
		h.fail(w, "Failed to read usage", err)
		return
	}
	h.json(w, http.StatusOK, map[string]any{
		"entries": entries,
		"summary": summary,
	})
}

func describe(list []personality.Personality) []personalityDescriptor {
	out := make([]personalityDescriptor, 0, len(list))
	for _, p := range list {
		out = append(out, personalityDescriptor{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	return out
}

// decode reads a JSON body into v, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

type errorResponse struct {
	Error          string `json:"error"`
	Details        string `json:"details,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// fail maps a service error to its HTTP status: 400 for rejected input,
// 502 for upstream failures and 500 otherwise.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	resp := errorResponse{Error: message, Details: err.Error()}
	status := http.StatusInternalServerError

	var ue *provider.UpstreamError
	switch {
	case debate.IsInvalid(err):
		status = http.StatusBadRequest
	case errors.As(err, &ue):
		status = http.StatusBadGateway
		resp.UpstreamStatus = ue.StatusCode
	}

	if status >= http.StatusInternalServerError {
		slog.Error(message, "error", err)
	}
	h.json(w, status, resp)
}

func (h *Handler) json(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, status int, message, details string) {
	h.json(w, status, errorResponse{Error: message, Details: details})
}
