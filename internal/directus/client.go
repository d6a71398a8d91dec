// Package directus is a small read-only client for the Directus REST API,
// the headless content store that holds congress documents.
package directus

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

	appLog "github.com/matthewnfaulkner/apoacongress-congressapp/internal/log"
)

// ErrNotFound is returned when the store answers 404 or the requested
// data is empty.
var ErrNotFound = errors.New("directus: not found")

// APIError is a non-2xx answer from the store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("directus: status %d", e.Status)
	}
	return fmt.Sprintf("directus: status %d: %s", e.Status, e.Message)
}

// Client reads items from one Directus instance.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *diskCache
	log     *appLog.Logger
}

// NewClient creates a client for baseURL authenticating with token.
// Responses are cached under cacheDir; an empty cacheDir disables caching.
func NewClient(baseURL, token, cacheDir string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: appLog.With("component", "directus"),
	}
	if cacheDir != "" {
		c.cache = &diskCache{dir: cacheDir}
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.http = hc
	return &cp
}

// WithToken returns a copy of the client that authenticates with token
// instead of the server token. An empty token returns c unchanged.
func (c *Client) WithToken(token string) *Client {
	if token == "" {
		return c
	}
	cp := *c
	cp.token = token
	return &cp
}

// ReadItems reads a collection into out, which should point to a slice.
// An empty result is reported as ErrNotFound.
func (c *Client) ReadItems(ctx context.Context, collection string, q Query, out any) error {
	return c.read(ctx, "/items/"+url.PathEscape(collection), q, out)
}

// ReadItem reads a single item by id into out.
func (c *Client) ReadItem(ctx context.Context, collection, id string, q Query, out any) error {
	if id == "" {
		return fmt.Errorf("directus: read %s: empty id", collection)
	}
	return c.read(ctx, "/items/"+url.PathEscape(collection)+"/"+url.PathEscape(id), q, out)
}

// ReadSingleton reads a singleton collection into out.
func (c *Client) ReadSingleton(ctx context.Context, collection string, q Query, out any) error {
	return c.read(ctx, "/items/"+url.PathEscape(collection), q, out)
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) read(ctx context.Context, path string, q Query, out any) error {
	params, err := q.Values()
	if err != nil {
		return err
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("directus: decode %s: %w", path, err)
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte("[]")) {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("directus: decode %s data: %w", path, err)
	}
	return nil
}

// get performs a conditional GET, honoring ETag and Last-Modified from the
// disk cache and falling back to the cached body on network or server
// errors.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var (
		cachePath  string
		meta       cacheEntry
		cachedBody []byte
	)
	if c.cache != nil {
		cachePath = c.cache.pathFor(rawURL, c.token)
		meta, cachedBody = c.cache.load(cachePath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	logURL := redactURL(rawURL)
	c.log.Debug("fetch start", "url", logURL)

	resp, err := c.http.Do(req)
	if err != nil {
		// Network error; if we have a cached body, fall back to it.
		if len(cachedBody) > 0 && ctx.Err() == nil {
			c.log.Error("fetch network error, using cached body", err, "url", logURL)
			return cachedBody, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}
		if c.cache != nil {
			newMeta := cacheEntry{
				URL:          logURL,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}
			if err := c.cache.save(cachePath, newMeta, body); err != nil {
				// Log but still return the freshly fetched body.
				c.log.Error("cache save failed", err, "url", logURL)
			}
		}
		c.log.Debug("fetch success", "url", logURL, "status", resp.StatusCode, "from_cache", false)
		return body, nil

	case resp.StatusCode == http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, errors.New("directus: 304 Not Modified but no cached body available")
		}
		c.log.Debug("fetch not modified; using cache", "url", logURL)
		return cachedBody, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound

	case resp.StatusCode >= 500 && len(cachedBody) > 0:
		c.log.Error("fetch non-OK, using cached body", errors.New(resp.Status), "url", logURL, "status", resp.StatusCode)
		return cachedBody, nil

	default:
		return nil, apiError(resp)
	}
}

func apiError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env envelope
	if json.Unmarshal(data, &env) == nil && len(env.Errors) > 0 {
		apiErr.Message = env.Errors[0].Message
	}
	return apiErr
}

// redactURL keeps scheme, host and path of a request URL for logging and
// drops the query string.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return "directus://...(redacted)"
	}
	parsed.RawQuery = ""
	parsed.User = nil
	return parsed.String()
}
