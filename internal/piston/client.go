// Package piston talks to a Piston-compatible code execution service.
//
// The client exposes the two endpoints the grader needs: the runtime catalog
// (GET {base}/runtimes) and the execute endpoint (POST {base}/execute). Every
// call is a single request with no retry; failures surface as
// *models.TransportError or *models.ResponseFormatError.
package piston

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harrison/grader/internal/models"
)

// Default endpoint layout of the public Piston API.
const (
	DefaultBaseURL      = "https://emkc.org/api/v2/piston"
	DefaultRuntimesPath = "/runtimes"
	DefaultExecutePath  = "/execute"
	DefaultTimeout      = 30 * time.Second
	DefaultUserAgent    = "grader"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 16 << 20

// Config holds the endpoint configuration injected into the client.
type Config struct {
	BaseURL      string
	RuntimesPath string
	ExecutePath  string
	Timeout      time.Duration // Per-request timeout; 0 disables it
	APIKey       string        // Sent as the Authorization header when set
	UserAgent    string
	HTTPClient   *http.Client // Optional; overrides Timeout when set
}

// DefaultConfig returns the public Piston endpoints.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		RuntimesPath: DefaultRuntimesPath,
		ExecutePath:  DefaultExecutePath,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
	}
}

// Client is a Piston API client. It is safe for concurrent use, although the
// grader only ever issues one request at a time.
type Client struct {
	httpClient  *http.Client
	runtimesURL string
	executeURL  string
	apiKey      string
	userAgent   string
}

// NewClient creates a client from cfg, filling unset paths with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RuntimesPath == "" {
		cfg.RuntimesPath = DefaultRuntimesPath
	}
	if cfg.ExecutePath == "" {
		cfg.ExecutePath = DefaultExecutePath
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		httpClient:  httpClient,
		runtimesURL: base + ensureSlash(cfg.RuntimesPath),
		executeURL:  base + ensureSlash(cfg.ExecutePath),
		apiKey:      cfg.APIKey,
		userAgent:   cfg.UserAgent,
	}
}

func ensureSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// RuntimesURL returns the catalog endpoint.
func (c *Client) RuntimesURL() string {
	return c.runtimesURL
}

// ExecuteURL returns the execute endpoint.
func (c *Client) ExecuteURL() string {
	return c.executeURL
}

// Runtimes fetches the runtime catalog.
func (c *Client) Runtimes(ctx context.Context) ([]models.Runtime, error) {
	body, err := c.do(ctx, http.MethodGet, c.runtimesURL, nil)
	if err != nil {
		return nil, err
	}

	var runtimes []models.Runtime
	if err := json.Unmarshal(body, &runtimes); err != nil {
		return nil, &models.ResponseFormatError{URL: c.runtimesURL, Body: truncate(body), Err: err}
	}
	return runtimes, nil
}

// ResolveRuntime fetches the catalog and returns the first runtime whose
// language equals language exactly. Aliases are not consulted.
func (c *Client) ResolveRuntime(ctx context.Context, language string) (models.Runtime, error) {
	runtimes, err := c.Runtimes(ctx)
	if err != nil {
		return models.Runtime{}, &models.RuntimeNotFoundError{Language: language, Err: err}
	}

	rt, ok := SelectRuntime(runtimes, language)
	if !ok {
		return models.Runtime{}, &models.RuntimeNotFoundError{Language: language}
	}
	return rt, nil
}

// SelectRuntime returns the first catalog entry whose Language equals language.
func SelectRuntime(runtimes []models.Runtime, language string) (models.Runtime, bool) {
	for _, rt := range runtimes {
		if rt.Language == language {
			return rt, true
		}
	}
	return models.Runtime{}, false
}

// Execute submits one file with one stdin value and returns the decoded result.
func (c *Client) Execute(ctx context.Context, rt models.Runtime, fileName, content, stdin string) (*models.ExecutionResult, error) {
	payload, err := json.Marshal(models.NewExecutionRequest(rt, fileName, content, stdin))
	if err != nil {
		return nil, fmt.Errorf("encode execution request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.executeURL, payload)
	if err != nil {
		return nil, err
	}

	var result models.ExecutionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &models.ResponseFormatError{URL: c.executeURL, Body: truncate(body), Err: err}
	}
	if result.Run == nil {
		return nil, &models.ResponseFormatError{
			URL:  c.executeURL,
			Body: truncate(body),
			Err:  errors.New(`missing "run" object`),
		}
	}
	return &result, nil
}

// errorBody is the shape Piston uses for 4xx responses.
type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, &models.TransportError{Method: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &models.TransportError{Method: method, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		transportErr := &models.TransportError{Method: method, URL: url, StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Message != "" {
			transportErr.Err = errors.New(eb.Message)
		}
		return nil, transportErr
	}

	return body, nil
}

func truncate(body []byte) string {
	const limit = 512
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
