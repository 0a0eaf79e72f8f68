package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stockstorm/widgets-go/internal/config"
	"github.com/stockstorm/widgets-go/logging"
)

var rootCmd = &cobra.Command{
	Use:           "dashctl",
	Short:         "Terminal client for the trading dashboard chat and charts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			cfg.Logging.Level = flagLogLevel
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		appCfg = cfg
		log.Logger = newLogger(cfg.Logging)
		return nil
	},
}

var (
	flagConfig   string
	flagLogLevel string

	appCfg *config.Config
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", config.DefaultConfigFile, "path to the YAML configuration file")
	flags.StringVar(&flagLogLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(chatCmd, chartCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dashctl:", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Logging) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if cfg.Format == "json" {
		l = zerolog.New(os.Stderr)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	return l.Level(level).With().Timestamp().Logger()
}

// componentLogger scopes the process logger for a library package.
func componentLogger(name string) logging.Logger {
	return logging.NewZerolog(log.Logger, name)
}

func sessionCookie(cfg *config.Config) *http.Cookie {
	if cfg.Site.Session == "" {
		return nil
	}
	return &http.Cookie{Name: cfg.Site.SessionCookieName, Value: cfg.Site.Session}
}
