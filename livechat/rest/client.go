package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// MessagesPath is the history endpoint relative to the site root.
const MessagesPath = "/livechat/messages/"

// ErrHTMLResponse is returned when the endpoint answers with a page instead
// of JSON. A session that is missing or expired gets redirected to the login
// form and ends up here.
var ErrHTMLResponse = errors.New("history endpoint answered with an HTML page")

// Client provides access to the chat history endpoint.
type Client struct {
	baseURL    string
	session    *http.Cookie
	httpClient *http.Client
}

// NewClient creates a new history client.
// baseURL is the site origin, e.g. "https://example.com".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// SetSessionCookie attaches the site session to every request. The history
// endpoint only answers logged-in users.
func (c *Client) SetSessionCookie(cookie *http.Cookie) {
	c.session = cookie
}

// GetMessages retrieves the full chat history, oldest first.
func (c *Client) GetMessages(ctx context.Context) (*MessagesResponse, error) {
	var resp MessagesResponse
	if err := c.get(ctx, MessagesPath, &resp); err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		resp.Messages = []MessageInfo{}
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.session != nil {
		req.AddCookie(c.session)
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("api error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("http error: status %d", resp.StatusCode)
	}

	if isHTML(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("%w (status %d, %s)", ErrHTMLResponse, resp.StatusCode, resp.Request.URL.Path)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "text/html"
}
