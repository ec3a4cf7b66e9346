// Package client is a REST client for the journali HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/WesleyKlop/journali-api/internal/api/respond"
	"github.com/WesleyKlop/journali-api/internal/auth"
	"github.com/WesleyKlop/journali-api/internal/model"
)

// Client talks to a journali server and is safe for concurrent use. Login
// replaces the bearer token; requests already in flight keep the old one.
type Client struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client during construction in New.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout bounds each request, including reading the response.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithDebug logs every request and response.
func WithDebug(enabled bool) Option {
	return func(c *Client) { c.http.SetDebug(enabled) }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Item is an item as returned by the server; Payload holds the kind's fields.
type Item struct {
	model.Item
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Fields is a flat request body: kind fields plus parent_id, parent_type and due_date.
type Fields map[string]any

func (c *Client) Register(ctx context.Context, username, password string) (*model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodPost, "/api/register", credentials(username, password), &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and installs the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (auth.Token, error) {
	var tok auth.Token
	if err := c.do(ctx, http.MethodPost, "/api/login", credentials(username, password), &tok); err != nil {
		return auth.Token{}, err
	}
	c.mu.Lock()
	c.token = tok.Token
	c.mu.Unlock()
	return tok, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe changes the caller's username and/or password; nil fields are kept.
func (c *Client) UpdateMe(ctx context.Context, username, password *string) (*model.User, error) {
	body := map[string]*string{}
	if username != nil {
		body["username"] = username
	}
	if password != nil {
		body["password"] = password
	}
	var out model.User
	if err := c.do(ctx, http.MethodPatch, "/api/users/me", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListItems returns the caller's items, optionally only the children of parentID.
func (c *Client) ListItems(ctx context.Context, parentID *string) ([]Item, error) {
	req := c.request(ctx)
	if parentID != nil {
		req.SetQueryParam("parent_id", *parentID)
	}
	var out []Item
	if err := c.send(req, http.MethodGet, "/api/items", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateItem creates an item of the named kind (pages, todos, todo_items, text_fields).
func (c *Client) CreateItem(ctx context.Context, kind string, fields Fields) (*Item, error) {
	var out Item
	if err := c.do(ctx, http.MethodPost, "/api/"+kind, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetItem(ctx context.Context, kind, id string) (*Item, error) {
	var out Item
	if err := c.do(ctx, http.MethodGet, itemPath(kind, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateItem patches an item and returns the updated kind fields.
func (c *Client) UpdateItem(ctx context.Context, kind, id string, fields Fields) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPatch, itemPath(kind, id), fields, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteItem(ctx context.Context, kind, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(kind, id), nil, nil)
}

// Health returns the server's health report.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.send(c.request(ctx), method, path, body, result)
}

// request starts a request carrying the current bearer token, if any.
func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

func (c *Client) send(req *resty.Request, method, path string, body, result any) error {
	var apiErr respond.ErrorResponse
	req.SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return newAPIError(resp.StatusCode(), apiErr.Message)
	}
	return nil
}

func itemPath(kind, id string) string {
	return fmt.Sprintf("/api/%s/%s", kind, id)
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}
