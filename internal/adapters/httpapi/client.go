// Package httpapi is the JSON-over-HTTP transport shared by the identity and
// backend adapters.
package httpapi

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

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxResponseBytes      = 1 << 20
	DefaultRequestTimeout = 30 * time.Second
	RequestIDHeader       = "X-Request-ID"
)

type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Request describes one call. Body is sent as-is with ContentType; use
// JSONBody or FormBody to build it.
type Request struct {
	Op          string
	Method      string
	Path        string
	Body        io.Reader
	ContentType string
	BearerToken string
}

type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Body)
}

// Is reports 401 responses as domain.ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrUnauthorized && e.Code == http.StatusUnauthorized
}

func JSONBody(payload any) (io.Reader, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func FormBody(values url.Values) (io.Reader, string) {
	return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded"
}

// Do sends req and decodes a 2xx JSON response into out when out is non-nil.
func (c Client) Do(ctx context.Context, req Request, out any) error {
	endpoint, err := BuildURL(c.BaseURL, req.Path)
	if err != nil {
		return err
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, req.Method, endpoint, req.Body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", req.Op, err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}
	httpReq.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)

	log := logger.OrNop(c.Logger).With(
		zap.String("op", req.Op),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return fmt.Errorf("%s: %w", req.Op, err)
	}
	defer func() { _ = resp.Body.Close() }()
	log.Debug("request done", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Op: req.Op, Code: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseBytes))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.Op, err)
	}
	return nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

// readErrorBody extracts FastAPI's {"detail": ...} when present.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil && len(payload.Detail) > 0 {
		var detail string
		if json.Unmarshal(payload.Detail, &detail) == nil {
			return detail
		}
		return string(payload.Detail)
	}

	return strings.TrimSpace(string(data))
}

func BuildURL(baseURL string, path string) (string, error) {
	baseURL = domain.NormalizeBaseURL(baseURL)
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	return baseURL + "/" + strings.TrimPrefix(path, "/"), nil
}
