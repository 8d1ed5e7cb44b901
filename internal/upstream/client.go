// Package upstream implements the client for the external MISO AI platform.
//
// Three capabilities are exposed: chat completion (multi-turn, blocking
// mode), workflow execution, and file upload. Every call attaches a
// server-held API key; failures are normalized into APIError values so
// both the proxy handlers and the chat engine share one error taxonomy.
package upstream

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// PathChat, PathWorkflow, and PathUpload are the platform endpoints,
	// relative to the /ext/v1 base URL.
	PathChat     = "/chat"
	PathWorkflow = "/workflows/run"
	PathUpload   = "/files/upload"

	// ModeBlocking is the only execution mode used: the platform returns
	// the complete answer in one response, no server push.
	ModeBlocking = "blocking"
)

// Config holds upstream connection settings.
type Config struct {
	BaseURL string
	UserID  string
	Timeout time.Duration
}

// Client talks to the MISO platform.
type Client struct {
	http   *resty.Client
	userID string
}

// NewClient creates an upstream client. The shared transport comes from
// retryablehttp for its pooling defaults, with retries disabled: every
// failure is terminal at the point of occurrence.
func NewClient(cfg Config) *Client {
	transport := retryablehttp.NewClient()
	transport.RetryMax = 0
	transport.Logger = nil

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "deskchat/1.0").
		SetTransport(transport.HTTPClient.Transport)

	userID := cfg.UserID
	if userID == "" {
		userID = "slack_user"
	}

	return &Client{
		http:   httpClient,
		userID: userID,
	}
}

// UserID returns the caller identity attached to upstream requests.
func (c *Client) UserID() string {
	return c.userID
}

// Response is a decoded upstream reply. Body is nil when the upstream
// returned something that is not JSON.
type Response struct {
	Status int
	Body   map[string]interface{}
}

// OK reports whether the reply carried a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// ErrorCode extracts the upstream error code field, if any. The platform
// reports it as "code", older deployments as "error".
func (r *Response) ErrorCode() string {
	if r.Body == nil {
		return ""
	}
	if code, ok := r.Body["code"].(string); ok {
		return code
	}
	if code, ok := r.Body["error"].(string); ok {
		return code
	}
	return ""
}

// PostJSON posts a JSON payload to path with the given API key and
// decodes the reply. A non-2xx status is not an error here; callers
// decide how to map it.
func (c *Client) PostJSON(ctx context.Context, apiKey, path string, payload interface{}) (*Response, error) {
	var body map[string]interface{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&body).
		SetError(&body).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	return &Response{Status: resp.StatusCode(), Body: body}, nil
}

// PostFile posts a multipart upload to path. The file goes into the
// fixed "file" form field; user identifies the uploader.
func (c *Client) PostFile(ctx context.Context, apiKey, path, filename string, file io.Reader, user string) (*Response, error) {
	var body map[string]interface{}

	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetFileReader("file", filename, file).
		SetResult(&body).
		SetError(&body)
	if user != "" {
		req.SetFormData(map[string]string{"user": user})
	}

	resp, err := req.Post(path)
	if err != nil {
		return nil, fmt.Errorf("upstream upload failed: %w", err)
	}

	return &Response{Status: resp.StatusCode(), Body: body}, nil
}
