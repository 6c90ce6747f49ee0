package backend

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

	"github.com/andresuchdata/quotemanager/internal/catalog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

const (
	ActionMaterials = "getMaterials"
	ActionProducts  = "getProducts"

	defaultTimeout = 10 * time.Second
	defaultBackoff = 500 * time.Millisecond
	maxBodyBytes   = 32 << 20
)

// Config describes the remote catalog endpoint.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Action string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: unexpected status %d: %s", e.Action, e.Code, e.Body)
}

// Client fetches positional catalog rows from the script backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	backoff time.Duration
}

// NewClient validates the base URL and applies timeout defaults.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("backend url must be provided")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", raw)
	}

	c := &Client{
		base:    base,
		http:    cfg.HTTPClient,
		timeout: cfg.Timeout,
		backoff: cfg.RetryBackoff,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.backoff <= 0 {
		c.backoff = defaultBackoff
	}
	return c, nil
}

func (c *Client) Name() string {
	return "backend:" + c.base.Host
}

// MaterialRows fetches the materials feed.
func (c *Client) MaterialRows(ctx context.Context) ([][]any, error) {
	return c.Fetch(ctx, ActionMaterials)
}

// ProductRows fetches the products feed.
func (c *Client) ProductRows(ctx context.Context) ([][]any, error) {
	return c.Fetch(ctx, ActionProducts)
}

// Fetch runs one action. Transport errors and 5xx responses are retried once.
func (c *Client) Fetch(ctx context.Context, action string) ([][]any, error) {
	var rows [][]any
	attempt := 0
	b := retry.WithMaxRetries(1, retry.NewConstant(c.backoff))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		out, err := c.fetchOnce(ctx, action)
		if err == nil {
			rows = out
			return nil
		}
		if retryable(err) {
			log.Warn().Err(err).Str("action", action).Int("attempt", attempt).Msg("backend: request failed")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) fetchOnce(ctx context.Context, action string) ([][]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("backend %s: build request: %w", action, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("backend %s: read body: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Action: action, Code: resp.StatusCode, Body: snippet(body)}
	}

	rows, err := DecodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", action, err)
	}
	return rows, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	// a cancelled caller is not worth a second attempt
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// DecodeRows accepts either a bare array of rows or an object wrapping it in "data".
// Elements that are not arrays are skipped.
func DecodeRows(body []byte) ([][]any, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty response")
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
	case '{':
		var env struct {
			Data  []json.RawMessage `json:"data"`
			Error string            `json:"error"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if env.Error != "" {
			return nil, fmt.Errorf("backend error: %s", env.Error)
		}
		items = env.Data
	default:
		return nil, fmt.Errorf("unexpected response: %s", snippet(body))
	}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '[' {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		var row []any
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

var _ catalog.Source = (*Client)(nil)
