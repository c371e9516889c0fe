package gateway

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

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/micro-nova/piconfig-go/internal/models"
)

const (
	apiPrefix        = "/api/v1/"
	maxResponseBytes = 1 << 20 // config.txt is a few KiB
	requestIDHeader  = "X-Request-ID"

	// DefaultRateLimit bounds requests per second against the backend.
	DefaultRateLimit = 20
)

// HTTPClient is the Gateway implementation for the add-on backend's JSON API.
// The backend answers {"error": CODE} on failure, usually with status 200, so
// the body decides success, not the status code.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
}

// NewHTTPClient creates a client for the backend rooted at baseURL
// (e.g. "http://homeassistant.local:8099"). No timeout is set: cancellation
// is left to the caller's context.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 5),
	}
}

// WithHTTPClient replaces the underlying *http.Client (tests use the
// httptest server's client).
func (c *HTTPClient) WithHTTPClient(hc *http.Client) *HTTPClient {
	c.httpClient = hc
	return c
}

// WithRateLimit sets the maximum requests per second. Zero or negative
// disables limiting.
func (c *HTTPClient) WithRateLimit(perSec float64) *HTTPClient {
	if perSec <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return c
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSec), 5)
	return c
}

// WithAPIKey sends key as a bearer token on every request.
func (c *HTTPClient) WithAPIKey(key string) *HTTPClient {
	c.apiKey = key
	return c
}

// BaseURL returns the backend root this client talks to.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

func (c *HTTPClient) GetMountState(ctx context.Context) (bool, error) {
	var resp struct {
		IsMounted *bool `json:"is_mounted"`
		Mounted   *bool `json:"mounted"` // older backends
	}
	if err := c.do(ctx, OpGetMountState, http.MethodGet, "mounted", nil, &resp); err != nil {
		return false, err
	}
	switch {
	case resp.IsMounted != nil:
		return *resp.IsMounted, nil
	case resp.Mounted != nil:
		return *resp.Mounted, nil
	}
	return false, &TransportError{Op: OpGetMountState, Err: errors.New("response missing is_mounted")}
}

func (c *HTTPClient) Mount(ctx context.Context) error {
	return c.do(ctx, OpMount, http.MethodPost, "mount", struct{}{}, nil)
}

func (c *HTTPClient) GetInterfaceState(ctx context.Context, id models.InterfaceID) (InterfaceStatus, error) {
	var resp struct {
		Enabled    *bool `json:"enabled"`
		Configured *bool `json:"configured"`
	}
	if err := c.do(ctx, OpGetInterfaceState, http.MethodGet, string(id), nil, &resp); err != nil {
		return InterfaceStatus{}, err
	}
	if resp.Enabled == nil || resp.Configured == nil {
		return InterfaceStatus{}, &TransportError{
			Op:  OpGetInterfaceState,
			Err: fmt.Errorf("%s response missing enabled/configured", id),
		}
	}
	return InterfaceStatus{Enabled: *resp.Enabled, Configured: *resp.Configured}, nil
}

func (c *HTTPClient) SetInterfaceState(ctx context.Context, id models.InterfaceID, enable bool) error {
	body := struct {
		Enable bool `json:"enable"`
	}{enable}
	return c.do(ctx, OpSetInterfaceState, http.MethodPost, string(id), body, nil)
}

func (c *HTTPClient) GetConfigText(ctx context.Context) (string, error) {
	var resp struct {
		ConfigTxt *string `json:"configTxt"`
	}
	if err := c.do(ctx, OpGetConfigText, http.MethodGet, "configTxt", nil, &resp); err != nil {
		return "", err
	}
	if resp.ConfigTxt == nil {
		return "", &TransportError{Op: OpGetConfigText, Err: errors.New("response missing configTxt")}
	}
	return *resp.ConfigTxt, nil
}

func (c *HTTPClient) SetConfigText(ctx context.Context, text string) error {
	body := struct {
		ConfigTxt string `json:"configTxt"`
	}{text}
	return c.do(ctx, OpSetConfigText, http.MethodPost, "configTxt", body, nil)
}

func (c *HTTPClient) Reboot(ctx context.Context) error {
	return c.do(ctx, OpReboot, http.MethodPost, "reboot", struct{}{}, nil)
}

// do performs one request/response exchange. result may be nil.
func (c *HTTPClient) do(ctx context.Context, op Op, method, endpoint string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+endpoint, bodyReader)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)

	slog.Debug("gateway: request", "op", op, "method", method, "endpoint", endpoint, "request_id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	return decodeResponse(op, resp.StatusCode, data, result)
}

// decodeResponse applies the backend's {"error": CODE} convention.
func decodeResponse(op Op, status int, data []byte, result interface{}) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		if status >= 300 {
			return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", status)}
		}
		if result != nil {
			return &TransportError{Op: op, Err: errors.New("empty response")}
		}
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		if status >= 300 {
			return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", status)}
		}
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	if raw, ok := envelope["error"]; ok {
		var code string
		if err := json.Unmarshal(raw, &code); err != nil {
			code = string(raw)
		}
		if code = strings.TrimSpace(code); code == "" {
			return &TransportError{Op: op, Err: fmt.Errorf("error response without a code (status %d)", status)}
		}
		return &RemoteError{Op: op, Code: code}
	}
	if status >= 300 {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", status)}
	}

	if result != nil {
		if err := json.Unmarshal(trimmed, result); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

var _ Gateway = (*HTTPClient)(nil)
