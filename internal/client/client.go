package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wishlist/internal/model"
	"wishlist/internal/store"
)

// Client talks to the wishlist HTTP API. It satisfies store.Store, so the
// mirror can sit on top of it or on top of an in-process ItemStore.
type Client struct {
	base string
	http *http.Client
}

var _ store.Store = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// New builds a client for the server at baseURL, e.g. http://localhost:3002.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// StatusError is returned for responses that are neither success, 400 nor 404.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, "/items", nil, http.StatusOK, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (c *Client) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	var it model.Item
	err := c.do(ctx, http.MethodPost, "/items", d, http.StatusCreated, &it)
	return it, err
}

func (c *Client) Update(ctx context.Context, id int64, p model.Patch) (model.Item, error) {
	var it model.Item
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/items/%d", id), p, http.StatusOK, &it)
	return it, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/items/%d", id), nil, http.StatusNoContent, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response back into the store's error taxonomy.
func decodeError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &body)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &model.ValidationError{Message: body.Message}
	case http.StatusNotFound:
		if body.Message == "" || body.Message == store.ErrNotFound.Error() {
			return store.ErrNotFound
		}
		return fmt.Errorf("%s: %w", body.Message, store.ErrNotFound)
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Message}
}
