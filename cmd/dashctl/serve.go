package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stockstorm/widgets-go/internal/devserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local backend with the chat and chart endpoints",
	RunE:  runServe,
}

var flagPersist bool

func init() {
	serveCmd.Flags().BoolVar(&flagPersist, "persist", false, "keep chat history in a Pebble database under chat.data_dir")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := devserver.NewStore()
	if flagPersist {
		s, err := devserver.OpenStore(filepath.Join(appCfg.Chat.DataDir, "history"))
		if err != nil {
			log.Warn().Err(err).Msg("[serve] open store failed; running in memory only")
		} else {
			store = s
		}
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("[serve] store close error")
		}
	}()

	if appCfg.Chat.UserID > 0 && appCfg.Chat.Username != "" {
		token := store.AddUser(devserver.User{ID: appCfg.Chat.UserID, Username: appCfg.Chat.Username})
		log.Info().
			Int64("user_id", appCfg.Chat.UserID).
			Str("cookie", appCfg.Site.SessionCookieName).
			Str("session", token).
			Msg("[serve] session for configured user; export DASH_SESSION to use it")
	}

	srv := devserver.New(devserver.Options{
		Store:             store,
		Logger:            componentLogger("devserver"),
		SessionCookieName: appCfg.Site.SessionCookieName,
	})
	log.Info().Msgf("[serve] http on %s, chat socket on %s", appCfg.Address(), appCfg.SocketAddress())
	return srv.Run(ctx, appCfg.Address(), appCfg.SocketAddress(), appCfg.Server.ShutdownTimeout)
}
