// Package upstream wraps one OpenAI-compatible chat-completion endpoint in
// request/response and streaming variants. The client is stateless and safe
// for concurrent use.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/errors"
)

const (
	// DefaultBaseURL is the production completion endpoint.
	DefaultBaseURL = "https://api.siliconflow.cn/v1/chat/completions"

	// DefaultModel is used when the caller passes an empty model identifier.
	DefaultModel = "Qwen/QwQ-32B"

	// DefaultTimeout bounds a single upstream call. Streaming responses can
	// legitimately run for minutes, so the default is generous; 0 disables
	// the bound entirely.
	DefaultTimeout = 120 * time.Second
)

// Response is the provider's non-streaming completion payload.
type Response struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one completion candidate.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Message is the completion content of a choice.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Content returns the first choice's message content, or "" if the
// provider returned no choices.
func (r *Response) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Completer is the narrow interface the analysis pipeline depends on.
// Tests substitute fakes; production code passes *Client.
type Completer interface {
	Complete(ctx context.Context, turns []chat.Turn, model string) (*Response, error)
}

// Client talks to one chat-completion endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the completion endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithModel overrides the default model identifier.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithTimeout bounds each request. 0 means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc = &http.Client{Timeout: d}
	}
}

// NewClient creates a Client authenticated with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		httpc:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the default model identifier for this client.
func (c *Client) Model() string {
	return c.model
}

// request is the wire body for both modes.
type request struct {
	Model    string      `json:"model"`
	Messages []chat.Turn `json:"messages"`
	Stream   bool        `json:"stream,omitempty"`
}

// Complete performs a synchronous completion call. A non-2xx status is
// returned as an UPSTREAM_REQUEST error with the provider's status; no
// retry is attempted.
func (c *Client) Complete(ctx context.Context, turns []chat.Turn, model string) (*Response, error) {
	resp, err := c.post(ctx, turns, model, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewUpstreamParse("decode completion response: " + err.Error())
	}
	return &out, nil
}

// StreamComplete performs a completion call with stream enabled and returns
// the raw response body. The caller owns the reader and must close it.
func (c *Client) StreamComplete(ctx context.Context, turns []chat.Turn, model string) (io.ReadCloser, error) {
	resp, err := c.post(ctx, turns, model, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, turns []chat.Turn, model string, stream bool) (*http.Response, error) {
	if len(turns) == 0 {
		return nil, errors.NewInvalidRequest("messages must be a non-empty array")
	}
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(request{Model: model, Messages: turns, Stream: stream})
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamRequest(0, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.NewUpstreamRequest(resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}
