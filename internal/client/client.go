// Package client talks to the IQ Scaler API on behalf of a test taker.
package client

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

	"github.com/google/uuid"

	"github.com/iqscaler/iqscaler-backend/internal/model"
	"github.com/iqscaler/iqscaler-backend/internal/response"
)

// APIError is a non-2xx reply decoded from the response envelope.
type APIError struct {
	StatusCode int
	Code       response.ErrCode
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("api: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Retryable reports whether repeating the same request could succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Test is everything needed to start an attempt.
type Test struct {
	Config    model.TestConfig
	Questions []model.QuestionForUser
}

// Client is a small JSON client for the /api/v1 surface.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:5000/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token used for later requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges credentials for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var out model.AuthResponse
	body := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// FetchTest loads the active configuration and a freshly drawn question set.
func (c *Client) FetchTest(ctx context.Context) (*Test, error) {
	var test Test
	if err := c.do(ctx, http.MethodGet, "/quiz/config", nil, &test.Config); err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	if err := c.do(ctx, http.MethodGet, "/quiz/questions", nil, &test.Questions); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return &test, nil
}

// Submit sends the answer sheet and returns the id of the stored result.
func (c *Client) Submit(ctx context.Context, req model.SubmitRequest) (uuid.UUID, error) {
	var out model.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/quiz/submit", req, &out); err != nil {
		return uuid.Nil, err
	}
	if out.ResultID == uuid.Nil {
		return uuid.Nil, errors.New("api: submit returned no result id")
	}
	return out.ResultID, nil
}

// Result fetches a stored result.
func (c *Client) Result(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	var out model.Result
	if err := c.do(ctx, http.MethodGet, "/results/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Fields = env.Error.Fields
		}
		return apiErr
	}
	if decErr != nil {
		return fmt.Errorf("decode response: %w", decErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
