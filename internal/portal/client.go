package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// IdempotencyHeader carries a stable key on writes so a retried request
// is not applied twice by servers that honor it.
const IdempotencyHeader = "X-Idempotency-Key"

// envelope is the portal's response wrapper. Code 0 means success.
type envelope struct {
	Code      int             `json:"code"`
	Err       string          `json:"err"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Client talks to the portal REST API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.cfg.Token = token
	return &cp
}

// Token returns the bearer token in use.
func (c *Client) Token() string { return c.cfg.Token }

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	idemKey string
	noRetry bool
}

// call performs req with retries and decodes the envelope's data into out
// (which may be nil).
func (c *Client) call(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", req.path, err)
		}
	}

	cfg := c.cfg.Retry
	if req.noRetry {
		cfg.MaxAttempts = 1
	}

	var data json.RawMessage
	err := retry(ctx, cfg, func() error {
		var err error
		data, err = c.once(ctx, req, payload)
		return err
	})
	if err != nil {
		return err
	}

	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.path, err)
	}
	return nil
}

// once performs a single HTTP round trip and unwraps the envelope.
func (c *Client) once(ctx context.Context, req request, payload []byte) (json.RawMessage, error) {
	u := c.cfg.BaseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if req.idemKey != "" {
		httpReq.Header.Set(IdempotencyHeader, req.idemKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.method, req.path, err)
	}

	var env envelope
	envErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: req.method, Path: req.path, Status: resp.StatusCode}
		switch {
		case envErr == nil && env.Err != "":
			apiErr.Code, apiErr.Msg = env.Code, env.Err
		default:
			apiErr.Msg = excerpt(raw)
		}
		return nil, apiErr
	}
	if envErr != nil {
		return nil, fmt.Errorf("%s %s: malformed response: %w", req.method, req.path, envErr)
	}
	if env.Code != 0 {
		return nil, &APIError{Method: req.method, Path: req.path, Status: resp.StatusCode, Code: env.Code, Msg: env.Err}
	}
	return env.Data, nil
}

const excerptLen = 200

// excerpt returns a short single-line prefix of a response body.
func excerpt(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if r := []rune(s); len(r) > excerptLen {
		s = string(r[:excerptLen]) + "..."
	}
	return s
}
