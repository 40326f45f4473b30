// Package gateway is the HTTP client for the hosted inspection backend.
// The sync layer only depends on its narrow per-entity CRUD surface; calls
// carry per-request timeouts, bounded retries with backoff, and a simple
// circuit breaker so a struggling backend is not hammered by every drain.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/habitek/inspectd/internal/config"
	"github.com/habitek/inspectd/pkg/repository"
)

var ErrCircuitOpen = errors.New("backend circuit open")

// Client talks to the hosted backend REST API.
type Client struct {
	cfg    config.BackendConfig
	base   *url.URL
	client *http.Client
	logger *slog.Logger
	val    *validator

	// simple circuit breaker state
	failures  int32
	openUntil int64 // unix nano
}

var _ repository.Gateway = (*Client)(nil)

// NewClient creates a backend client. If httpClient is nil a default with
// sane transport limits is used.
func NewClient(cfg config.BackendConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 15 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	val, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("compile payload schemas: %w", err)
	}
	return &Client{cfg: cfg, base: u, client: httpClient, logger: logger, val: val}, nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.failures) < int32(c.cfg.CircuitFailureThreshold) {
		return false
	}
	if time.Now().UnixNano() < atomic.LoadInt64(&c.openUntil) {
		return true
	}
	// half-open: reset failures and allow a request
	atomic.StoreInt32(&c.failures, 0)
	return false
}

func (c *Client) recordFailure() {
	v := atomic.AddInt32(&c.failures, 1)
	if v >= int32(c.cfg.CircuitFailureThreshold) {
		atomic.StoreInt64(&c.openUntil, time.Now().Add(c.cfg.CircuitReset).UnixNano())
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt32(&c.failures, 0)
}

// httpError marks responses that carried an HTTP status.
type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.status, e.body)
}

func retryable(err error) bool {
	var he *httpError
	if errors.As(err, &he) {
		return he.status >= 500
	}
	// network-level errors are worth retrying
	return true
}

// do performs one JSON request with retries and returns the response body.
func (c *Client) do(ctx context.Context, method, p string, body any) ([]byte, error) {
	if c.isCircuitOpen() {
		return nil, ErrCircuitOpen
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	var lastErr error
	attempts := c.cfg.Retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.Backoff * time.Duration(attempt)):
			}
		}
		out, err := c.doOnce(ctx, method, p, payload)
		if err == nil {
			c.recordSuccess()
			return out, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	c.recordFailure()
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, p string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p

	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &httpError{status: res.StatusCode, body: strings.TrimSpace(string(b))}
	}
	return b, nil
}

// Health pings the backend.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

// UploadMedia streams a captured blob to backend storage and returns the
// public URL. The checksum travels with the upload so the backend can
// verify the blob. Uploads are not retried: the caller's queue entry is the
// retry mechanism.
func (c *Client) UploadMedia(ctx context.Context, remotePath string, r io.Reader, checksum string) (string, error) {
	if c.isCircuitOpen() {
		return "", ErrCircuitOpen
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", remotePath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", fmt.Errorf("read media blob: %w", err)
	}
	if checksum != "" {
		if err := mw.WriteField("checksum", checksum); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/storage/" + remotePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		c.recordFailure()
		return "", err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.recordFailure()
		return "", &httpError{status: res.StatusCode, body: strings.TrimSpace(string(b))}
	}
	c.recordSuccess()

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return out.URL, nil
}
