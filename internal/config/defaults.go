package config

import "time"

// Default values for configuration.
const (
	// Site defaults
	DefaultBaseURL           = "http://127.0.0.1:8000"
	DefaultSessionCookieName = "sessionid"
	DefaultSocketPort        = 7001

	// Chat defaults
	DefaultReconnectDelay   = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultDataDir          = ".dashctl"

	// Dev server defaults
	DefaultServerHost      = "127.0.0.1"
	DefaultServerPort      = 8000
	DefaultShutdownTimeout = 5 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	DefaultConfigFile = "config.yml"
)
