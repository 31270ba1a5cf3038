// Package client talks the resource-collection protocol of the backend store:
// per-collection endpoints supporting list-with-query-filter, get-by-id,
// create, partial update, and delete. A missing resource is reported as
// ErrNotFound; every other failure surfaces as a transport error.
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
	"strings"
	"time"
)

// ErrNotFound marks the expected missing-resource outcome, distinguished from
// transport failures. Callers match it with errors.Is.
var ErrNotFound = errors.New("resource not found")

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// GetByID fetches a single resource at collection/id.
func (c *Client) GetByID(ctx context.Context, collection, id string, out any) error {
	return c.do(ctx, http.MethodGet, collection+"/"+id, nil, nil, out)
}

// GetAll fetches a collection, optionally narrowed by an exact-match query
// filter evaluated by the backend.
func (c *Client) GetAll(ctx context.Context, collection string, filter url.Values, out any) error {
	return c.do(ctx, http.MethodGet, collection, filter, nil, out)
}

// GetOne emulates "one row by filter" over a collection endpoint: it issues a
// filtered list request and collapses the response to its first element, or
// ErrNotFound when the list is empty.
func (c *Client) GetOne(ctx context.Context, collection string, filter url.Values, out any) error {
	var list []json.RawMessage
	if err := c.do(ctx, http.MethodGet, collection, filter, nil, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no %s found: %w", singular(collection), ErrNotFound)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(list[0], out); err != nil {
		return fmt.Errorf("decode %s: %w", singular(collection), err)
	}
	return nil
}

// Post creates a resource. The backend's representation of the created
// resource is decoded into out when out is non-nil.
func (c *Client) Post(ctx context.Context, collection string, body, out any) error {
	return c.do(ctx, http.MethodPost, collection, nil, body, out)
}

// Patch partially updates a resource; only the fields present in body change.
func (c *Client) Patch(ctx context.Context, collection, id string, body, out any) error {
	return c.do(ctx, http.MethodPatch, collection+"/"+id, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, collection+"/"+id, nil, nil, nil)
}

// Ping reports whether the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, filter url.Values, body, out any) error {
	endpoint := c.baseURL + "/" + path
	if len(filter) > 0 {
		endpoint += "?" + filter.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("no %s found with this id: %w", resourceName(path), ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// resourceName turns "products/42" or "products" into "product".
func resourceName(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return singular(path)
}

func singular(collection string) string {
	return strings.TrimSuffix(collection, "s")
}
