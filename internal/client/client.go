package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 10 * time.Second

// User is the single entity exposed by the users API.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserInput is the body accepted by create and update.
type UserInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatusError is returned when the API answers outside the 2xx range.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Code, e.Body)
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// Client talks to the users API over a pooled HTTP transport.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: t,
		},
	}
}

func UserPath(id int) string {
	return fmt.Sprintf("/api/users/%d", id)
}

// List returns every user, ordered as the API returns them.
func (c *Client) List(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := c.Do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Get(ctx context.Context, id int) (*User, error) {
	var u User
	if _, err := c.Do(ctx, http.MethodGet, UserPath(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Create(ctx context.Context, in UserInput) (int, error) {
	return c.Do(ctx, http.MethodPost, "/api/users", in, nil)
}

func (c *Client) Update(ctx context.Context, id int, in UserInput) (int, error) {
	return c.Do(ctx, http.MethodPut, UserPath(id), in, nil)
}

func (c *Client) Delete(ctx context.Context, id int) (int, error) {
	return c.Do(ctx, http.MethodDelete, UserPath(id), nil, nil)
}

func (c *Client) ResetSequence(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodPost, "/api/users/reset-sequence", nil, nil)
	return err
}

// Do sends one request and returns the status code. A non-2xx reply yields a
// *StatusError; out, when non-nil, receives the decoded JSON body on success.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(b)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return resp.StatusCode, nil
	}

	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
