// Package config loads the dashctl configuration from defaults, a YAML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/stockstorm/widgets-go/livechat"
)

// Site describes the dashboard deployment the client talks to.
type Site struct {
	BaseURL           string `yaml:"base_url"`
	SessionCookieName string `yaml:"session_cookie_name"`
	Session           string `yaml:"session"`
	SocketURL         string `yaml:"socket_url"` // derived from BaseURL when empty
	SocketPort        int    `yaml:"socket_port"`
}

// Chat holds the identity and reconnect settings of the terminal chat.
type Chat struct {
	Username         string        `yaml:"username"`
	UserID           int64         `yaml:"user_id"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	DataDir          string        `yaml:"data_dir"`
}

// Server configures the development backend.
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	SocketPort      int           `yaml:"socket_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Config is the application configuration.
type Config struct {
	Site    Site    `yaml:"site"`
	Chat    Chat    `yaml:"chat"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Load builds the configuration. A missing YAML file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()
	if path == "" {
		path = DefaultConfigFile
	}
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Site: Site{
			BaseURL:           DefaultBaseURL,
			SessionCookieName: DefaultSessionCookieName,
			SocketPort:        DefaultSocketPort,
		},
		Chat: Chat{
			ReconnectDelay:   DefaultReconnectDelay,
			HandshakeTimeout: DefaultHandshakeTimeout,
			DataDir:          DefaultDataDir,
		},
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			SocketPort:      DefaultSocketPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// loadFromYAML overlays the file onto cfg.
func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overlays DASH_* variables onto cfg.
func loadFromEnv(cfg *Config) error {
	setString(&cfg.Site.BaseURL, "DASH_BASE_URL")
	setString(&cfg.Site.Session, "DASH_SESSION")
	setString(&cfg.Site.SocketURL, "DASH_SOCKET_URL")
	setString(&cfg.Chat.Username, "DASH_USERNAME")
	setString(&cfg.Chat.DataDir, "DASH_DATA_DIR")
	setString(&cfg.Server.Host, "DASH_SERVER_HOST")
	setString(&cfg.Logging.Level, "DASH_LOG_LEVEL")
	setString(&cfg.Logging.Format, "DASH_LOG_FORMAT")

	if v := os.Getenv("DASH_USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid DASH_USER_ID: %w", err)
		}
		cfg.Chat.UserID = id
	}
	if v := os.Getenv("DASH_SOCKET_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DASH_SOCKET_PORT: %w", err)
		}
		cfg.Site.SocketPort = port
		cfg.Server.SocketPort = port
	}
	if v := os.Getenv("DASH_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DASH_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DASH_RECONNECT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DASH_RECONNECT_DELAY: %w", err)
		}
		cfg.Chat.ReconnectDelay = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ChatSocketURL returns the configured socket URL, or derives it from the
// site's base URL and socket port.
func (c *Config) ChatSocketURL() (string, error) {
	if c.Site.SocketURL != "" {
		return c.Site.SocketURL, nil
	}
	return livechat.DeriveSocketURL(c.Site.BaseURL, c.Site.SocketPort)
}

// Address returns the dev server's HTTP address in "host:port" form.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SocketAddress returns the dev server's chat socket address.
func (c *Config) SocketAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.SocketPort)
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute http(s) URL, got %q", c.Site.BaseURL)
	}
	if c.Site.SessionCookieName == "" {
		return errors.New("site.session_cookie_name must not be empty")
	}
	if !validPort(c.Site.SocketPort) {
		return errors.New("site.socket_port must be a valid port number (1-65535)")
	}
	if c.Chat.UserID < 0 {
		return errors.New("chat.user_id must not be negative")
	}
	if c.Chat.ReconnectDelay <= 0 {
		return errors.New("chat.reconnect_delay must be positive")
	}
	if c.Chat.HandshakeTimeout <= 0 {
		return errors.New("chat.handshake_timeout must be positive")
	}
	if !validPort(c.Server.Port) || !validPort(c.Server.SocketPort) {
		return errors.New("server ports must be valid port numbers (1-65535)")
	}
	if c.Server.Port == c.Server.SocketPort {
		return errors.New("server.port and server.socket_port must differ")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of: debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.New("logging.format must be one of: console, json")
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
