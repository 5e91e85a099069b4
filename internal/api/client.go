// Package api is the HTTP client for the smart-home service's REST surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"homesync/internal/domain"
)

// Client is a minimal smart-home API client.
type Client struct {
	BaseURL     string
	BearerToken string
	ClientID    string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults. Each client carries a fresh
// session id sent as X-Client-Id so the service can correlate reports.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		ClientID: uuid.NewString(),
		Timeout:  10 * time.Second,
	}
}

// APIError wraps non-2xx responses. The response body is the message; when
// the body is empty the HTTP status phrase stands in.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return http.StatusText(e.StatusCode)
}

// User fetches the display profile for a user id.
func (c *Client) User(ctx context.Context, id int) (domain.User, error) {
	var resp domain.User
	err := c.do(ctx, http.MethodGet, c.apiPath(fmt.Sprintf("users/%d", id)), nil, &resp)
	return resp, err
}

// ActivityLog returns the most-recent-first behavior entries for a user.
func (c *Client) ActivityLog(ctx context.Context, userID, limit int) ([]domain.ActivityLogEntry, error) {
	params := url.Values{}
	params.Set("user_id", strconv.Itoa(userID))
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp []domain.ActivityLogEntry
	err := c.do(ctx, http.MethodGet, c.apiPath("behavior/")+"?"+params.Encode(), nil, &resp)
	return resp, err
}

// ReportBehavior persists one behavior record. The acknowledgment body is
// not consumed.
func (c *Client) ReportBehavior(ctx context.Context, rec domain.BehaviorRecord) error {
	return c.do(ctx, http.MethodPost, c.apiPath("behavior/"), rec, nil)
}

// Notifications returns the current notification list for a user, optionally
// restricted to one server category, paginated by skip/limit.
func (c *Client) Notifications(ctx context.Context, userID int, category string, skip, limit int) ([]domain.Notification, error) {
	params := url.Values{}
	params.Set("user_id", strconv.Itoa(userID))
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(limit))
	if category != "" {
		params.Set("category", category)
	}
	var resp []domain.Notification
	err := c.do(ctx, http.MethodGet, c.apiPath("notifications/")+"?"+params.Encode(), nil, &resp)
	return resp, err
}

// MarkRead marks a single notification read for a user.
func (c *Client) MarkRead(ctx context.Context, id, userID int) error {
	endpoint := c.apiPath(fmt.Sprintf("notifications/%d/read", id)) + "?user_id=" + strconv.Itoa(userID)
	return c.do(ctx, http.MethodPut, endpoint, nil, nil)
}

// MarkAllRead marks every notification read for a user.
func (c *Client) MarkAllRead(ctx context.Context, userID int) error {
	endpoint := c.apiPath("notifications/read-all") + "?user_id=" + strconv.Itoa(userID)
	return c.do(ctx, http.MethodPut, endpoint, nil, nil)
}

// UnreadCount returns the unread notification count for a user.
func (c *Client) UnreadCount(ctx context.Context, userID int) (int, error) {
	var resp int
	endpoint := c.apiPath("notifications/unread-count") + "?user_id=" + strconv.Itoa(userID)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	// Clients are shared across goroutines; never mutate c here.
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ClientID != "" {
		req.Header.Set("X-Client-Id", c.ClientID)
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) apiPath(p string) string {
	return "api/v1/" + strings.TrimLeft(p, "/")
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
