package livechat

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultSocketPort is the port the chat socket listens on, next to the site.
const DefaultSocketPort = 7001

// Config controls how the client connects.
type Config struct {
	URL              string
	Header           http.Header // extra handshake headers, e.g. the session cookie
	Username         string
	UserID           int64
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 0 keeps the socket open while the room is idle
	WriteTimeout     time.Duration
	ReconnectDelay   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReconnectDelay:   5 * time.Second,
	}
}

func (c Config) validate() error {
	if c.URL == "" {
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return WrapError(ErrorInvalidConfig, "parse URL", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return NewError(ErrorInvalidConfig, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	if c.ReconnectDelay <= 0 {
		return NewError(ErrorInvalidConfig, "reconnect delay must be positive")
	}
	return nil
}

// DeriveSocketURL maps the page origin onto the chat socket address:
// https pages use wss, anything else ws; the host is kept, the port replaced
// and the path is "/". A non-positive port selects DefaultSocketPort.
func DeriveSocketURL(pageURL string, port int) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("page URL %q has no host", pageURL)
	}
	if port <= 0 {
		port = DefaultSocketPort
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	out := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(u.Hostname(), strconv.Itoa(port)),
		Path:   "/",
	}
	return out.String(), nil
}
