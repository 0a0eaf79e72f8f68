package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stockstorm/widgets-go/livechat"
	"github.com/stockstorm/widgets-go/livechat/rest"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join the dashboard live chat from the terminal",
	Long: `Join the dashboard live chat from the terminal.

Type a line and press Enter to send it. Commands:
  /toggle        collapse or expand the chat
  /emoji GLYPH   append an emoji to the pending message
  /quit          leave`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	if appCfg.Chat.UserID <= 0 || appCfg.Chat.Username == "" {
		return errors.New("chat needs chat.user_id and chat.username (or DASH_USER_ID and DASH_USERNAME)")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	socketURL, err := appCfg.ChatSocketURL()
	if err != nil {
		return fmt.Errorf("chat socket url: %w", err)
	}

	clientCfg := livechat.DefaultConfig()
	clientCfg.URL = socketURL
	clientCfg.UserID = appCfg.Chat.UserID
	clientCfg.Username = appCfg.Chat.Username
	clientCfg.ReconnectDelay = appCfg.Chat.ReconnectDelay
	clientCfg.HandshakeTimeout = appCfg.Chat.HandshakeTimeout
	if c := sessionCookie(appCfg); c != nil {
		clientCfg.Header = http.Header{"Cookie": {c.String()}}
	}
	client := livechat.NewClient(clientCfg)
	client.SetLogger(componentLogger("livechat"))
	client.OnStateChanged(func(ev livechat.StateEvent) {
		e := log.Debug().Str("from", ev.OldState.String()).Str("to", ev.NewState.String())
		if ev.Error != nil {
			e = e.Err(ev.Error)
		}
		e.Msg("[chat] connection state")
	})

	history := rest.NewClient(appCfg.Site.BaseURL)
	history.SetSessionCookie(sessionCookie(appCfg))

	var prefs livechat.PrefStore = &livechat.MemoryPrefs{}
	if p, err := livechat.OpenPebblePrefs(filepath.Join(appCfg.Chat.DataDir, "prefs")); err != nil {
		log.Warn().Err(err).Msg("[chat] open prefs failed; collapse state will not persist")
	} else {
		defer p.Close()
		prefs = p
	}

	out := cmd.OutOrStdout()
	surface := newTerminalSurface(out)
	w, err := livechat.Bootstrap(ctx, livechat.Options{
		UserID:    appCfg.Chat.UserID,
		Username:  appCfg.Chat.Username,
		Transport: client,
		History:   history,
		Prefs:     prefs,
		Surface:   surface,
		Logger:    componentLogger("widget"),
	})
	if err != nil {
		return err
	}
	defer w.Close()

	return readInput(ctx, cmd.InOrStdin(), out, w, surface)
}

func readInput(ctx context.Context, in io.Reader, out io.Writer, w *livechat.Widget, surface *terminalSurface) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		switch {
		case line == "/quit":
			return nil
		case line == "/toggle":
			w.ToggleCollapse()
		case strings.HasPrefix(line, "/emoji "):
			w.PickEmoji(strings.TrimSpace(strings.TrimPrefix(line, "/emoji ")))
			fmt.Fprintf(out, "  pending: %s\n", surface.Input())
		default:
			surface.SetInput(surface.Input() + line)
			if err := w.Send(ctx); err != nil {
				fmt.Fprintf(out, "  send failed: %v\n", err)
			} else if surface.Input() != "" && strings.TrimSpace(line) != "" {
				fmt.Fprintln(out, "  not connected; message kept")
			}
		}
	}
}

// terminalSurface prints what the widget renders. While collapsed only the
// unread badge is shown; expanding replays the list.
type terminalSurface struct {
	*livechat.MemorySurface
	out io.Writer

	mu        sync.Mutex
	collapsed bool
}

func newTerminalSurface(out io.Writer) *terminalSurface {
	return &terminalSurface{MemorySurface: livechat.NewMemorySurface(0, 0), out: out}
}

func (t *terminalSurface) println(fragment string) {
	if text := plainText(fragment); text != "" {
		fmt.Fprintln(t.out, text)
	}
}

func (t *terminalSurface) visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.collapsed
}

func (t *terminalSurface) ShowPlaceholder(fragment string) {
	t.MemorySurface.ShowPlaceholder(fragment)
	if t.visible() {
		t.println(fragment)
	}
}

func (t *terminalSurface) ReplaceMessages(fragments []string) {
	t.MemorySurface.ReplaceMessages(fragments)
	if t.visible() {
		for _, f := range fragments {
			t.println(f)
		}
	}
}

func (t *terminalSurface) AppendMessage(fragment string) {
	t.MemorySurface.AppendMessage(fragment)
	if t.visible() {
		t.println(fragment)
	}
}

func (t *terminalSurface) SetCollapsed(collapsed bool) {
	t.MemorySurface.SetCollapsed(collapsed)
	t.mu.Lock()
	changed := t.collapsed != collapsed
	t.collapsed = collapsed
	t.mu.Unlock()
	if !changed {
		return
	}
	if collapsed {
		fmt.Fprintln(t.out, "-- chat collapsed (/toggle to expand) --")
		return
	}
	fmt.Fprintln(t.out, "-- chat expanded --")
	snap := t.Snapshot()
	t.println(snap.Placeholder)
	for _, f := range snap.Messages {
		t.println(f)
	}
}

func (t *terminalSurface) SetBadge(text string, visible bool) {
	t.MemorySurface.SetBadge(text, visible)
	if visible && !t.visible() {
		fmt.Fprintf(t.out, "-- %s unread --\n", t.Snapshot().BadgeText)
	}
}
