package resiliency

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"cosmossdk.io/log"
	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 2
)

// HTTPError is a non-2xx response from a collaborator.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Status, e.Body)
}

// IsDenied reports an access-denied class of failure. Callers use it to
// switch to a fallback data source instead of retrying.
func IsDenied(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden
	}
	return false
}

// IsTransient reports whether a failure is worth retrying: network errors,
// rate limits and server-side errors. Everything else is permanent.
func IsTransient(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status == http.StatusTooManyRequests || he.Status >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return err != nil
}

// Client wraps http.Client with a per-call timeout and a bounded retry
// loop with exponential backoff for transient failures.
type Client struct {
	hc         *http.Client
	timeout    time.Duration
	maxRetries uint64
	logger     log.Logger
}

func NewClient(timeout time.Duration, maxRetries int, logger log.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Client{
		hc:         &http.Client{Timeout: timeout},
		timeout:    timeout,
		maxRetries: uint64(maxRetries),
		logger:     logger.With("module", "resiliency"),
	}
}

func (c *Client) do(ctx context.Context, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	var out []byte
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		req, err := build(callCtx)
		if err != nil {
			return backoff.Permanent(err)
		}
		res, err := c.hc.Do(req)
		if err != nil {
			if !IsTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		defer res.Body.Close()
		buf, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			herr := &HTTPError{Status: res.StatusCode, Body: string(buf)}
			if !IsTransient(herr) {
				return backoff.Permanent(error(herr))
			}
			return herr
		}
		out = buf
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	err := backoff.Retry(op, bo)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DoJSON sends body as a JSON request and unmarshals the response into out.
// A nil body sends no payload; a nil out discards the response.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	buf, err := c.do(ctx, func(callCtx context.Context) (*http.Request, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(callCtx, method, url, rd)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	if err != nil {
		c.logger.Debug("request fail", "url", url, "err", err)
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(buf, out)
}

// PostMultipart uploads data as a single file field plus string fields and
// unmarshals the JSON response into out.
func (c *Client) PostMultipart(ctx context.Context, url string, headers map[string]string, field, filename string, data []byte, fields map[string]string, out any) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	if _, err = fw.Write(data); err != nil {
		return err
	}
	for k, v := range fields {
		if err = w.WriteField(k, v); err != nil {
			return err
		}
	}
	if err = w.Close(); err != nil {
		return err
	}
	payload := body.Bytes()
	contentType := w.FormDataContentType()

	buf, err := c.do(ctx, func(callCtx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	if err != nil {
		c.logger.Debug("multipart request fail", "url", url, "err", err)
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(buf, out)
}
