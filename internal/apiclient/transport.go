// Package apiclient talks to the REST backend: one Transport per base URL,
// a generic Resource per collection path and an AuthClient for login.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/target/crud-console/internal/errors"
	"github.com/target/crud-console/internal/observability/metrics"
	"github.com/target/crud-console/internal/observability/statsd"
	"github.com/target/crud-console/internal/ports"
)

const (
	// DefaultAPIKeyHeader is the header the backend reads the API key from.
	DefaultAPIKeyHeader = "ApiKey"
	// DefaultTimeout bounds every request that carries no earlier deadline.
	DefaultTimeout = 30 * time.Second
	// RequestIDHeader carries a fresh identifier per request.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

// TransportOptions configures a Transport.
type TransportOptions struct {
	BaseURL      string
	APIKeyHeader string
	APIKey       string
	HTTPClient   *http.Client
	Timeout      time.Duration
	UserAgent    string

	// Tokens supplies the bearer token. Nil sends no Authorization header.
	Tokens ports.TokenSource
	// OnUnauthorized runs after a 401 response, before the error is returned.
	OnUnauthorized func(ctx context.Context)

	Limiter *rate.Limiter
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Transport issues JSON requests against a single base URL.
// It is safe for concurrent use.
type Transport struct {
	baseURL        string
	apiKeyHeader   string
	apiKey         string
	client         *http.Client
	timeout        time.Duration
	userAgent      string
	tokens         ports.TokenSource
	onUnauthorized func(ctx context.Context)
	limiter        *rate.Limiter
	metrics        statsd.Sink
	logger         *slog.Logger
}

// Request describes one backend call. Path is appended to the base URL.
type Request struct {
	Method string
	Path   string
	Body   any
	// Resource names the collection for logs and metric tags.
	Resource string
}

// NewTransport builds a Transport, applying defaults for unset options.
func NewTransport(opts TransportOptions) *Transport {
	t := &Transport{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		apiKeyHeader:   opts.APIKeyHeader,
		apiKey:         opts.APIKey,
		client:         opts.HTTPClient,
		timeout:        opts.Timeout,
		userAgent:      opts.UserAgent,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		limiter:        opts.Limiter,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
	}
	if t.apiKeyHeader == "" {
		t.apiKeyHeader = DefaultAPIKeyHeader
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	if t.timeout <= 0 {
		t.timeout = DefaultTimeout
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// BaseURL returns the normalized base URL.
func (t *Transport) BaseURL() string { return t.baseURL }

// Do sends req and decodes a 2xx JSON body into out. A nil out discards the
// body. Non-2xx responses and failures come back as *apperrors.AppError.
func (t *Transport) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()
	status, err := t.do(ctx, req, out)
	metrics.EmitRequest(t.metrics, metrics.RequestMetric{
		Resource: req.Resource,
		Method:   req.Method,
		Status:   status,
		Duration: time.Since(start),
		Err:      err,
	})
	return err
}

func (t *Transport) do(ctx context.Context, req Request, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return 0, classifyNetworkError(ctx, "rate limiter", err)
		}
	}

	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return 0, err
	}

	reqID := httpReq.Header.Get(RequestIDHeader)
	t.logger.DebugContext(ctx, "api request",
		"method", req.Method, "url", httpReq.URL.String(), "request_id", reqID)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return 0, classifyNetworkError(ctx, req.Method+" "+httpReq.URL.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, classifyNetworkError(ctx, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &apperrors.HTTPStatusError{
			Method:     req.Method,
			URL:        httpReq.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		}
		t.logger.WarnContext(ctx, "api request failed",
			"method", req.Method, "url", httpReq.URL.String(),
			"status", resp.StatusCode, "request_id", reqID)
		if resp.StatusCode == http.StatusUnauthorized && t.onUnauthorized != nil {
			t.onUnauthorized(ctx)
		}
		return resp.StatusCode, statusToError(statusErr, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, apperrors.Wrap(err, apperrors.ErrCodeDecode, "decode response")
	}
	return resp.StatusCode, nil
}

func (t *Transport) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request")
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	if t.apiKey != "" {
		httpReq.Header.Set(t.apiKeyHeader, t.apiKey)
	}
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	if t.tokens != nil {
		token, err := t.tokens.Token(ctx)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read bearer token")
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return httpReq, nil
}

func statusToError(statusErr *apperrors.HTTPStatusError, body []byte) *apperrors.AppError {
	var code apperrors.ErrorCode
	var msg string
	switch statusErr.StatusCode {
	case http.StatusUnauthorized:
		code, msg = apperrors.ErrCodeUnauthorized, "unauthorized"
	case http.StatusForbidden:
		code, msg = apperrors.ErrCodeForbidden, "forbidden"
	case http.StatusNotFound:
		code, msg = apperrors.ErrCodeNotFound, "not found"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code, msg = apperrors.ErrCodeValidation, "request rejected"
	case http.StatusConflict:
		code, msg = apperrors.ErrCodeConflict, "conflict"
	default:
		code, msg = apperrors.ErrCodeUpstream, fmt.Sprintf("unexpected status %d", statusErr.StatusCode)
	}

	appErr := &apperrors.AppError{Code: code, Message: msg, Cause: statusErr}
	if code == apperrors.ErrCodeValidation {
		if fields := problemFields(body); len(fields) > 0 {
			appErr.Fields = fields
		}
	}
	return appErr
}

// problemFields extracts the "errors" map of an ASP.NET-style problem document.
func problemFields(body []byte) map[string]string {
	var doc struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &doc); err != nil || len(doc.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(doc.Errors))
	for field, msgs := range doc.Errors {
		out[field] = strings.Join(msgs, " ")
	}
	return out
}

func classifyNetworkError(ctx context.Context, op string, err error) *apperrors.AppError {
	switch {
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, op+" canceled")
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, op+" timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, op+" timed out")
	}
	return apperrors.Wrap(err, apperrors.ErrCodeTransport, op+" failed")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
