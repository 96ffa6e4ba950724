// SPDX-License-Identifier: MPL-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// maxErrorBody bounds how much of an error body is kept in APIError.Message.
const maxErrorBody = 4 << 10

// Client talks to one chat-completion deployment.
type Client struct {
	endpoint   string
	deployment string
	apiVersion string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *log.Logger
	timeout    time.Duration
	apiVersion string
}

// New creates a Client for the deployment hosted at endpoint.
func New(endpoint, deployment, apiKey string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("llm: endpoint is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("llm: invalid endpoint %q: %w", endpoint, err)
	}
	if strings.TrimSpace(deployment) == "" {
		return nil, fmt.Errorf("llm: deployment is required")
	}

	cfg := &clientConfig{apiVersion: "2024-02-15-preview"}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{}
	if cfg.httpClient != nil {
		// Copy so the timeout never leaks into the caller's client.
		c := *cfg.httpClient
		httpClient = &c
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		endpoint:   endpoint,
		deployment: deployment,
		apiVersion: cfg.apiVersion,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *log.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d < 0 {
			return fmt.Errorf("llm: negative timeout %s", d)
		}
		cfg.timeout = d
		return nil
	}
}

// WithAPIVersion sets the api-version query parameter.
func WithAPIVersion(v string) Option {
	return func(cfg *clientConfig) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("llm: api version is empty")
		}
		cfg.apiVersion = v
		return nil
	}
}

// URL returns the chat-completion URL requests are posted to.
func (c *Client) URL() string {
	q := url.Values{"api-version": []string{c.apiVersion}}
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?%s",
		c.endpoint, url.PathEscape(c.deployment), q.Encode())
}

// Complete sends req and returns the content of the first non-empty choice.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", ErrEmptyResponse
}

// Chat sends req and returns the decoded response.
func (c *Client) Chat(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llm: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	c.logger.Debug("chat completion request", "deployment", c.deployment, "messages", len(req.Messages), "max_tokens", req.MaxTokens)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: do request: %w", err)
	}
	defer httpResp.Body.Close()

	c.logger.Debug("chat completion response", "status", httpResp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, decodeAPIError(httpResp)
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	if resp.Usage.TotalTokens > 0 {
		c.logger.Debug("token usage", "prompt", resp.Usage.PromptTokens, "completion", resp.Usage.CompletionTokens)
	}
	return &resp, nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
