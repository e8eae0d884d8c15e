package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/saransh1220/portal-notify/internal/modules/notification/domain"
)

// Routes are the portal's notification endpoints, relative to the base URL.
type Routes struct {
	Feed        string
	MarkRead    string // %s is replaced by the escaped notification id
	MarkAllRead string
}

func DefaultRoutes() Routes {
	return Routes{
		Feed:        "/api/student/notifications",
		MarkRead:    "/api/student/notifications/%s/read",
		MarkAllRead: "/api/student/notifications/read-all",
	}
}

// TokenSource supplies the bearer credential per request.
type TokenSource interface {
	Token() (string, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}

// Client is a thin HTTP client for the portal's notification REST API.
type Client struct {
	baseURL    string
	routes     Routes
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, routes Routes, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		routes:  routes,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchFeed returns the server's current notifications and unread count.
func (c *Client) FetchFeed(ctx context.Context) (domain.Feed, error) {
	var feed domain.Feed
	if err := c.do(ctx, "fetch notifications", http.MethodGet, c.routes.Feed, &feed); err != nil {
		return domain.Feed{}, err
	}
	if feed.Notifications == nil {
		feed.Notifications = []domain.Notification{}
	}
	if feed.UnreadCount < 0 {
		feed.UnreadCount = 0
	}
	return feed, nil
}

func (c *Client) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("mark read: %w", domain.ErrNotificationNotFound)
	}
	path := fmt.Sprintf(c.routes.MarkRead, url.PathEscape(id))
	err := c.do(ctx, "mark read", http.MethodPut, path, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrNotificationNotFound, err)
	}
	return err
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, "mark all read", http.MethodPut, c.routes.MarkAllRead, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
