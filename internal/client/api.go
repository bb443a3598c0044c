package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/repository"
	"github.com/MrSnakeDoc/appdir/internal/utils"
)

// RetryPolicy bounds the retries of read requests.
type RetryPolicy struct {
	Attempts  int           // total attempts, including the first
	BaseDelay time.Duration // wait before the second attempt, doubled each time
	MaxDelay  time.Duration // cap on a single wait
}

// DefaultRetry is three attempts starting at one second.
var DefaultRetry = RetryPolicy{Attempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

// API is a typed client for the appdir HTTP surface. Only GET requests are
// retried; mutations are sent exactly once.
type API struct {
	base  string
	http  *http.Client
	retry RetryPolicy
	log   logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

type APIOption func(*API)

func WithHTTPClient(c *http.Client) APIOption { return func(a *API) { a.http = c } }
func WithRetry(p RetryPolicy) APIOption       { return func(a *API) { a.retry = p } }
func WithAPILogger(l logger.Logger) APIOption { return func(a *API) { a.log = l } }

// NewAPI validates baseURL (scheme and host, optional path prefix).
func NewAPI(baseURL string, opts ...APIOption) (*API, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	a := &API{
		base:  strings.TrimRight(u.String(), "/"),
		http:  &http.Client{Timeout: 15 * time.Second},
		retry: DefaultRetry,
		log:   logger.Nop(),
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.retry.Attempts < 1 {
		a.retry.Attempts = 1
	}
	return a, nil
}

// BaseURL returns the normalized server url.
func (a *API) BaseURL() string { return a.base }

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   string           `json:"error"`
	Code    domain.ErrorKind `json:"code"`
	Details json.RawMessage  `json:"details"`
}

func appPath(key string) string { return "/apps/" + url.PathEscape(key) }

func (a *API) List(ctx context.Context, q domain.Query) (domain.ListResult, error) {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("category", q.Category)
	set("tag", q.Tag)
	set("author", q.Author)
	set("q", q.Q)
	set("sort", q.Sort)
	set("order", q.Order)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	path := "/apps"
	if enc := v.Encode(); enc != "" {
		path += "?" + enc
	}

	var res domain.ListResult
	err := a.get(ctx, path, &res)
	return res, err
}

// Get fetches one app by id or directUrl. The server counts it as a view.
func (a *API) Get(ctx context.Context, key string) (domain.App, error) {
	var app domain.App
	err := a.get(ctx, appPath(key), &app)
	return app, err
}

func (a *API) Export(ctx context.Context) ([]domain.App, error) {
	var apps []domain.App
	err := a.get(ctx, "/apps/export", &apps)
	return apps, err
}

func (a *API) Create(ctx context.Context, p domain.Patch) (domain.App, error) {
	var app domain.App
	err := a.send(ctx, http.MethodPost, "/apps", p, &app)
	return app, err
}

func (a *API) Update(ctx context.Context, key string, p domain.Patch) (domain.App, error) {
	var app domain.App
	err := a.send(ctx, http.MethodPut, appPath(key), p, &app)
	return app, err
}

func (a *API) Delete(ctx context.Context, key string) (domain.App, error) {
	var app domain.App
	err := a.send(ctx, http.MethodDelete, appPath(key), nil, &app)
	return app, err
}

func (a *API) Like(ctx context.Context, key string) (domain.App, error) {
	var app domain.App
	err := a.send(ctx, http.MethodPost, appPath(key)+"/like", nil, &app)
	return app, err
}

func (a *API) Batch(ctx context.Context, patches []domain.Patch) (repository.BatchResult, error) {
	var res repository.BatchResult
	err := a.send(ctx, http.MethodPost, "/apps/batch", patches, &res)
	return res, err
}

func (a *API) Import(ctx context.Context, records []domain.App) (repository.BatchResult, error) {
	var res repository.BatchResult
	err := a.send(ctx, http.MethodPost, "/apps/import", records, &res)
	return res, err
}

func (a *API) Reindex(ctx context.Context) (repository.Drift, error) {
	var d repository.Drift
	err := a.send(ctx, http.MethodPost, "/apps/reindex", nil, &d)
	return d, err
}

// Ping probes the server liveness endpoint once, without retry.
func (a *API) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return &Error{Kind: KindUnreachable, Message: "server unreachable", Err: err}
	}
	defer utils.Close(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindServer, Message: "health check failed", Status: resp.StatusCode}
	}
	return nil
}

func (a *API) get(ctx context.Context, path string, out any) error {
	return a.withRetry(ctx, path, func() error {
		return a.do(ctx, http.MethodGet, path, nil, out)
	})
}

func (a *API) send(ctx context.Context, method, path string, body, out any) error {
	return a.do(ctx, method, path, body, out)
}

// withRetry runs fn up to Attempts times while it fails with a transport
// error or a 5xx status, waiting BaseDelay, 2*BaseDelay, ... in between.
func (a *API) withRetry(ctx context.Context, path string, fn func() error) error {
	delay := a.retry.BaseDelay
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		var ce *Error
		if err == nil || attempt >= a.retry.Attempts || !errors.As(err, &ce) || !ce.retryable() {
			return err
		}
		a.log.Warn("request failed, retrying",
			logger.String("path", path),
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", delay),
			logger.Error(err))
		if serr := a.sleep(ctx, delay); serr != nil {
			return err
		}
		delay *= 2
		if a.retry.MaxDelay > 0 && delay > a.retry.MaxDelay {
			delay = a.retry.MaxDelay
		}
	}
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return &Error{Kind: KindUnreachable, Message: "server unreachable", Err: err}
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &Error{
			Kind:    KindServer,
			Message: fmt.Sprintf("%s %s: %s", method, path, http.StatusText(resp.StatusCode)),
			Status:  resp.StatusCode,
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &Error{Kind: KindServer, Message: "malformed response", Status: resp.StatusCode, Err: err}
	}
	if !env.Success {
		return fromEnvelope(env.Code, env.Error, env.Details)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindServer, Message: "malformed response data", Status: resp.StatusCode, Err: err}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
