// Package client implements the client-side state layer of the email UI:
// cached query results with optimistic updates, rollback on failure,
// debounced search, and a deferred mark-as-read action.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/canis-majoris/instantly-assignment-v3/internal/models"
	"github.com/canis-majoris/instantly-assignment-v3/internal/repository"
)

// Defaults for client behavior
const (
	DefaultTimeout       = 10 * time.Second
	DefaultDebounce      = 300 * time.Millisecond
	DefaultMarkReadDelay = 2 * time.Second
)

// envelope is the wire response shape: exactly two variants, success with
// payload fields or error with a message.
type envelope struct {
	Status  string             `json:"status"`
	Error   string             `json:"error,omitempty"`
	Email   *models.Email      `json:"email,omitempty"`
	Emails  []models.Email     `json:"emails,omitempty"`
	Count   int                `json:"count,omitempty"`
	Stats   *models.EmailStats `json:"stats,omitempty"`
	Message string             `json:"message,omitempty"`
}

// APIError is a non-2xx response surfaced to the caller
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client is an explicitly constructed session object: create one per
// process/session and Close it at teardown. It is not a package-level
// singleton.
type Client struct {
	baseURL string
	httpc   *http.Client

	cache *store

	debounce      time.Duration
	markReadDelay time.Duration

	search *debouncer
	marker *readMarker
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// WithDebounce sets the search debounce interval
func WithDebounce(d time.Duration) Option {
	return func(c *Client) { c.debounce = d }
}

// WithMarkReadDelay sets the delay before a selected email is marked read
func WithMarkReadDelay(d time.Duration) Option {
	return func(c *Client) { c.markReadDelay = d }
}

// New creates a Client for the given server base URL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		httpc:         &http.Client{Timeout: DefaultTimeout},
		cache:         newStore(),
		debounce:      DefaultDebounce,
		markReadDelay: DefaultMarkReadDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.search = newDebouncer(c.debounce)
	c.marker = newReadMarker(c.markReadDelay)
	return c
}

// Close cancels any pending timers. The client must not be used afterwards.
func (c *Client) Close() {
	c.search.stop()
	c.marker.stop()
}

// Emails returns the records matching a filter and optional query, serving
// from cache when a fresh entry exists.
func (c *Client) Emails(ctx context.Context, filter, query string, threaded bool) ([]models.Email, error) {
	key := ListKey{Filter: filter, Query: query, Threaded: threaded}

	c.cache.mu.Lock()
	if cached, ok := c.cache.lists[key]; ok && !cached.stale {
		emails := copyEmails(cached.emails)
		c.cache.mu.Unlock()
		return emails, nil
	}
	c.cache.listGen[key]++
	gen := c.cache.listGen[key]
	c.cache.mu.Unlock()

	q := url.Values{}
	q.Set("filter", filter)
	if query != "" {
		q.Set("query", query)
	}
	if threaded {
		q.Set("threaded", "true")
	}

	env, err := c.getWithRetry(ctx, "/api/emails?"+q.Encode())
	if err != nil {
		return nil, err
	}

	c.cache.mu.Lock()
	// A newer request or an invalidation superseded this response; hand the
	// data to the caller but do not cache it.
	if c.cache.listGen[key] == gen {
		c.cache.lists[key] = &entry{emails: copyEmails(env.Emails)}
	}
	c.cache.mu.Unlock()

	return env.Emails, nil
}

// Thread returns the records of one thread oldest-first, cached per
// (threadId, filter).
func (c *Client) Thread(ctx context.Context, threadID, filter string) ([]models.Email, error) {
	key := ThreadKey{ThreadID: threadID, Filter: filter}

	c.cache.mu.Lock()
	if cached, ok := c.cache.threads[key]; ok && !cached.stale {
		emails := copyEmails(cached.emails)
		c.cache.mu.Unlock()
		return emails, nil
	}
	c.cache.threadGen[key]++
	gen := c.cache.threadGen[key]
	c.cache.mu.Unlock()

	path := "/api/emails/thread/" + url.PathEscape(threadID)
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}

	env, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, err
	}

	c.cache.mu.Lock()
	if c.cache.threadGen[key] == gen {
		c.cache.threads[key] = &entry{emails: copyEmails(env.Emails)}
	}
	c.cache.mu.Unlock()

	return env.Emails, nil
}

// Stats returns the stats snapshot, cached globally.
func (c *Client) Stats(ctx context.Context) (*models.EmailStats, error) {
	c.cache.mu.Lock()
	if c.cache.statsOK && c.cache.stats != nil {
		stats := *c.cache.stats
		c.cache.mu.Unlock()
		return &stats, nil
	}
	c.cache.statsGen++
	gen := c.cache.statsGen
	c.cache.mu.Unlock()

	env, err := c.getWithRetry(ctx, "/api/emails/stats")
	if err != nil {
		return nil, err
	}

	c.cache.mu.Lock()
	if c.cache.statsGen == gen && env.Stats != nil {
		stats := *env.Stats
		c.cache.stats = &stats
		c.cache.statsOK = true
	}
	c.cache.mu.Unlock()

	return env.Stats, nil
}

// Compose creates a new email. Like every mutation, it invalidates all
// cached views on completion regardless of outcome.
func (c *Client) Compose(ctx context.Context, req *models.ComposeRequest) (*models.Email, error) {
	defer c.invalidate()

	env, err := c.do(ctx, http.MethodPost, "/api/emails", req)
	if err != nil {
		return nil, err
	}
	return env.Email, nil
}

// UpdateFlags performs a flag mutation with an optimistic local update:
// cached views are patched immediately, rolled back to the pre-mutation
// snapshot on failure, and invalidated on completion either way.
func (c *Client) UpdateFlags(ctx context.Context, req *models.UpdateRequest) ([]models.Email, *models.EmailStats, error) {
	c.cache.mu.Lock()
	undo := c.cache.snapshot()
	c.cache.applyOptimistic(req, "")
	c.cache.mu.Unlock()

	env, err := c.do(ctx, http.MethodPatch, "/api/emails", req)

	c.cache.mu.Lock()
	if err != nil {
		c.cache.restore(undo)
	}
	c.cache.invalidateAll()
	c.cache.mu.Unlock()

	if err != nil {
		return nil, nil, err
	}
	return env.Emails, env.Stats, nil
}

// Delete soft-deletes a single record optimistically.
func (c *Client) Delete(ctx context.Context, id uint) (*models.EmailStats, error) {
	deleted := true
	return c.deleteWith(ctx, "/api/emails?id="+strconv.FormatUint(uint64(id), 10),
		&models.UpdateRequest{ID: &id, IsDeleted: &deleted}, "")
}

// DeleteThread soft-deletes a thread, optionally scoped by filter (only
// filter=important narrows the target set server-side). The optimistic
// patch carries the same scope so cached members the server will not touch
// stay in place.
func (c *Client) DeleteThread(ctx context.Context, threadID, filter string) (*models.EmailStats, error) {
	q := url.Values{}
	q.Set("threadId", threadID)
	if filter != "" {
		q.Set("filter", filter)
	}
	scope := ""
	if filter == repository.FilterImportant {
		scope = filter
	}
	deleted := true
	return c.deleteWith(ctx, "/api/emails?"+q.Encode(),
		&models.UpdateRequest{ThreadID: threadID, IsDeleted: &deleted}, scope)
}

// Restore un-deletes a single record optimistically.
func (c *Client) Restore(ctx context.Context, id uint) ([]models.Email, *models.EmailStats, error) {
	deleted := false
	return c.UpdateFlags(ctx, &models.UpdateRequest{ID: &id, IsDeleted: &deleted})
}

// ToggleImportant flips the important flag of a single record optimistically.
func (c *Client) ToggleImportant(ctx context.Context, id uint, important bool) ([]models.Email, *models.EmailStats, error) {
	return c.UpdateFlags(ctx, &models.UpdateRequest{ID: &id, IsImportant: &important})
}

func (c *Client) deleteWith(ctx context.Context, path string, optimistic *models.UpdateRequest, scope string) (*models.EmailStats, error) {
	c.cache.mu.Lock()
	undo := c.cache.snapshot()
	c.cache.applyOptimistic(optimistic, scope)
	c.cache.mu.Unlock()

	env, err := c.do(ctx, http.MethodDelete, path, nil)

	c.cache.mu.Lock()
	if err != nil {
		c.cache.restore(undo)
	}
	c.cache.invalidateAll()
	c.cache.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return env.Stats, nil
}

// Search schedules a debounced list query. Rapid successive calls collapse
// into one request after the quiet period; the callback receives the result.
// A result superseded by a newer search while its request was in flight is
// dropped without invoking the callback.
func (c *Client) Search(filter, query string, threaded bool, fn func([]models.Email, error)) {
	c.search.schedule(func(token uint64) {
		ctx, cancel := context.WithTimeout(context.Background(), c.httpc.Timeout)
		defer cancel()
		emails, err := c.Emails(ctx, filter, query, threaded)
		if !c.search.latest(token) {
			return
		}
		fn(emails, err)
	})
}

// Select arms the mark-as-read timer for a viewed email. Selecting another
// email before the delay elapses cancels the pending action. fn, when not
// nil, receives the outcome of the deferred update; without a callback a
// failure is logged.
func (c *Client) Select(id uint, fn func(error)) {
	c.marker.arm(func() {
		read := true
		ctx, cancel := context.WithTimeout(context.Background(), c.httpc.Timeout)
		defer cancel()
		_, _, err := c.UpdateFlags(ctx, &models.UpdateRequest{ID: &id, IsRead: &read})
		if fn != nil {
			fn(err)
			return
		}
		if err != nil {
			slog.Warn("deferred mark-as-read failed", "id", id, "error", err)
		}
	})
}

// CachedList returns the cached entry for a list key, including stale
// entries, without touching the network. Intended for snapshot rendering.
func (c *Client) CachedList(filter, query string, threaded bool) ([]models.Email, bool) {
	key := ListKey{Filter: filter, Query: query, Threaded: threaded}
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	cached, ok := c.cache.lists[key]
	if !ok {
		return nil, false
	}
	return copyEmails(cached.emails), true
}

// invalidate marks everything stale after a mutation
func (c *Client) invalidate() {
	c.cache.mu.Lock()
	c.cache.invalidateAll()
	c.cache.mu.Unlock()
}

// getWithRetry performs a GET, retrying once on transport failure. Reads
// are idempotent; mutations are never retried.
func (c *Client) getWithRetry(ctx context.Context, path string) (*envelope, error) {
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		if _, ok := err.(*APIError); ok {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		return c.do(ctx, http.MethodGet, path, nil)
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if env.Status != "success" {
		msg := env.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return &env, nil
}
