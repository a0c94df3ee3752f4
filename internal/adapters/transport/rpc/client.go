package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
)

const (
	DefaultPath           = "/rpc"
	MaxBodyBytes          = 4 << 20
	defaultRequestTimeout = 15 * time.Second

	MethodServiceParams = "get_service_params"
	MethodProviders     = "get_providers"
	MethodRunApp        = "run_app"
)

// RemoteError is an error reported by the backend inside a well-formed
// response.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error %d", e.Code)
	}
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Method     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Method, e.StatusCode)
}

type Request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// Client speaks JSON-RPC over HTTP POST to {base}/rpc.
type Client struct {
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Path           string
}

var _ ports.Transport = Client{}

func (c Client) Discover(ctx context.Context, baseURL string) (domain.ServiceParams, error) {
	var params domain.ServiceParams
	if err := c.invoke(ctx, baseURL, MethodServiceParams, []any{}, &params); err != nil {
		return domain.ServiceParams{}, err
	}
	return params, nil
}

func (c Client) Providers(ctx context.Context, baseURL string, userID domain.UserID) ([]string, error) {
	var providers []string
	if err := c.invoke(ctx, baseURL, MethodProviders, []any{string(userID)}, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// Call runs one application op. A nil out discards the result.
func (c Client) Call(ctx context.Context, baseURL string, req domain.Request, out any) error {
	return c.invoke(ctx, baseURL, MethodRunApp, req.Envelope(), out)
}

func (c Client) invoke(ctx context.Context, baseURL string, method string, params []any, out any) error {
	endpoint, err := buildEndpoint(baseURL, c.path())
	if err != nil {
		return err
	}

	body, err := json.Marshal(Request{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Method: method, StatusCode: resp.StatusCode}
	}

	var payload Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxBodyBytes)).Decode(&payload); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if payload.Error != nil {
		return fmt.Errorf("%s: %w", method, payload.Error)
	}
	if out == nil || len(payload.Result) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	return nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) path() string {
	if c.Path != "" {
		return c.Path
	}
	return DefaultPath
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

// buildEndpoint accepts a bare host:port as well as a full base URL.
func buildEndpoint(baseURL string, path string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", errors.New("rpc base url is required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse rpc base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("rpc base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("rpc base url host is required")
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/" + strings.TrimLeft(path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return parsed.String(), nil
}
