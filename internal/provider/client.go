package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTemperature = 0.8
	defaultMaxTokens   = 800
	defaultTimeout     = 2 * time.Minute

	// errorBodyLimit caps how much of a failed response is kept in errors.
	errorBodyLimit = 512
)

// Call describes one finished upstream request.
type Call struct {
	ID         string
	Operation  string
	Provider   string
	Model      string
	StatusCode int
	Err        error
	Duration   time.Duration
}

// Recorder receives every upstream call a Client makes.
type Recorder interface {
	RecordCall(ctx context.Context, call Call)
}

// Config holds the settings for one provider client.
type Config struct {
	Kind    Kind
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Headers map[string]string
}

// Client is a Provider backed by an OpenAI-compatible HTTP API.
type Client struct {
	kind       Kind
	baseURL    string
	apiKey     string
	headers    map[string]string
	timeout    time.Duration
	httpClient *http.Client
	recorder   Recorder
	newID      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder sets where finished calls are reported.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithIDGenerator sets the function used to label calls.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// New creates a client. Empty BaseURL and Headers fall back to the
// provider's defaults.
func New(cfg Config, opts ...Option) (*Client, error) {
	ep, err := DefaultEndpoint(cfg.Kind)
	if err != nil {
		return nil, err
	}

	c := &Client{
		kind:       cfg.Kind,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		headers:    cfg.Headers,
		timeout:    cfg.Timeout,
		httpClient: http.DefaultClient,
		newID:      func() string { return "" },
	}
	if c.baseURL == "" {
		c.baseURL = ep.BaseURL
	}
	if c.headers == nil {
		c.headers = ep.Headers
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string { return string(c.kind) }

// Kind returns the provider kind.
func (c *Client) Kind() Kind { return c.kind }

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type chatRequest struct {
	Model             string        `json:"model"`
	Messages          []chatMessage `json:"messages"`
	Temperature       float64       `json:"temperature"`
	MaxTokens         int           `json:"max_tokens"`
	Stream            bool          `json:"stream,omitempty"`
	TopP              *float64      `json:"top_p,omitempty"`
	TopK              *int          `json:"top_k,omitempty"`
	FrequencyPenalty  *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty   *float64      `json:"presence_penalty,omitempty"`
	RepetitionPenalty *float64      `json:"repetition_penalty,omitempty"`
	MinP              *float64      `json:"min_p,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []Model `json:"data"`
}

func buildChatRequest(req Request, stream bool) chatRequest {
	p := req.Sampling.WithDefaults(defaultTemperature, defaultMaxTokens)

	messages := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	return chatRequest{
		Model:             req.Model,
		Messages:          messages,
		Temperature:       *p.Temperature,
		MaxTokens:         *p.MaxTokens,
		Stream:            stream,
		TopP:              p.TopP,
		TopK:              p.TopK,
		FrequencyPenalty:  p.FrequencyPenalty,
		PresencePenalty:   p.PresencePenalty,
		RepetitionPenalty: p.RepetitionPenalty,
		MinP:              p.MinP,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do sends req and returns the response when the status is 2xx. Any other
// outcome is returned as an *UpstreamError.
func (c *Client) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: c.Name(), Operation: op, Message: "request failed", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &UpstreamError{
			Provider:   c.Name(),
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

func (c *Client) finish(ctx context.Context, op, model string, start time.Time, status int, err error) {
	call := Call{
		ID:         c.newID(),
		Operation:  op,
		Provider:   c.Name(),
		Model:      model,
		StatusCode: status,
		Err:        err,
		Duration:   time.Since(start),
	}
	if err != nil {
		slog.Error("Upstream call failed",
			"operation", op,
			"provider", call.Provider,
			"model", model,
			"status", status,
			"duration", call.Duration,
			"error", err,
		)
	} else {
		slog.Debug("Upstream call completed",
			"operation", op,
			"provider", call.Provider,
			"model", model,
			"status", status,
			"duration", call.Duration,
		)
	}
	if c.recorder != nil {
		c.recorder.RecordCall(ctx, call)
	}
}

func statusOf(resp *http.Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}

// ListModels fetches the model catalog. Any failure yields an empty list.
func (c *Client) ListModels(ctx context.Context) []Model {
	const op = "list_models"
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	models, status, err := c.listModels(ctx)
	c.finish(ctx, op, "", start, status, err)
	if err != nil {
		return []Model{}
	}
	return models
}

func (c *Client) listModels(ctx context.Context) ([]Model, int, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.do(req, "list_models")
	if err != nil {
		return nil, statusOf(resp, err), err
	}
	defer resp.Body.Close()

	var body modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode models: %w", err)
	}
	if body.Data == nil {
		body.Data = []Model{}
	}
	return body.Data, resp.StatusCode, nil
}

// Generate performs a non-streaming completion and returns the text of
// the first choice, or "" when the response has none.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	const op = "generate"
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content, status, err := c.generate(ctx, req)
	c.finish(ctx, op, req.Model, start, status, err)
	return content, err
}

func (c *Client) generate(ctx context.Context, req Request) (string, int, error) {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", buildChatRequest(req, false))
	if err != nil {
		return "", 0, err
	}
	resp, err := c.do(httpReq, "generate")
	if err != nil {
		return "", statusOf(resp, err), err
	}
	defer resp.Body.Close()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", resp.StatusCode, &UpstreamError{
			Provider:  c.Name(),
			Operation: "generate",
			Message:   "invalid response body",
			Err:       err,
		}
	}
	if len(body.Choices) == 0 {
		return "", resp.StatusCode, nil
	}
	return body.Choices[0].Message.Content, resp.StatusCode, nil
}

// GenerateStream starts a streaming completion. Errors before the first
// byte are returned as *UpstreamError; later failures surface from reads
// on the returned body. Closing the body releases the request.
//
// The client timeout bounds the wait for response headers only. Once the
// stream is open it runs until the upstream finishes or ctx is cancelled.
func (c *Client) GenerateStream(ctx context.Context, req Request) (io.ReadCloser, error) {
	const op = "generate_stream"
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	handshake := time.AfterFunc(c.timeout, cancel)

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", buildChatRequest(req, true))
	if err != nil {
		handshake.Stop()
		cancel()
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.do(httpReq, op)
	handshake.Stop()
	if err == nil && resp.Body == nil {
		err = &UpstreamError{Provider: c.Name(), Operation: op, Message: "response has no body"}
	}
	c.finish(ctx, op, req.Model, start, statusOf(resp, err), err)
	if err != nil {
		cancel()
		return nil, err
	}
	return &streamBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// streamBody cancels the request context once the body is closed.
type streamBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *streamBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
