package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockstorm/widgets-go/livechat"
	"github.com/stockstorm/widgets-go/livechat/rest"
)

func socketURL(hs *httptest.Server) string {
	return "ws" + strings.TrimPrefix(hs.URL, "http") + "/"
}

func connectClient(t *testing.T, url string, id int64, name string) (*livechat.Client, chan livechat.ChatMessage) {
	t.Helper()
	cfg := livechat.DefaultConfig()
	cfg.URL = url
	cfg.UserID = id
	cfg.Username = name
	cfg.ReconnectDelay = 100 * time.Millisecond
	c := livechat.NewClient(cfg)
	msgs := make(chan livechat.ChatMessage, 8)
	c.OnMessage(func(m livechat.ChatMessage) { msgs <- m })
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	require.Eventually(t, func() bool { return c.State() == livechat.StateOpen }, 3*time.Second, 10*time.Millisecond)
	return c, msgs
}

func receive(t *testing.T, ch chan livechat.ChatMessage) livechat.ChatMessage {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(3 * time.Second):
		t.Fatal("no message received")
		return livechat.ChatMessage{}
	}
}

func TestHubBroadcastsToEverySocket(t *testing.T) {
	store := NewStore()
	store.AddUser(User{ID: 1, Username: "ala", ProfilePicture: strptr("/media/ala.png")})
	store.AddUser(User{ID: 2, Username: "ola"})
	srv := New(Options{Store: store})
	hs := httptest.NewServer(srv.SocketHandler())
	defer hs.Close()

	alice, aliceMsgs := connectClient(t, socketURL(hs), 1, "ala")
	_, bobMsgs := connectClient(t, socketURL(hs), 2, "ola")
	require.Eventually(t, func() bool { return srv.Hub().Peers() == 2 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, alice.Send(context.Background(), "hi <all>"))

	own := receive(t, aliceMsgs)
	assert.True(t, own.IsSelf)
	assert.Equal(t, "hi <all>", own.Text)
	require.NotNil(t, own.AvatarURL)
	assert.Equal(t, "/media/ala.png", *own.AvatarURL)

	other := receive(t, bobMsgs)
	assert.False(t, other.IsSelf)
	assert.Equal(t, "ala", other.Username)

	h := store.History(2)
	require.Len(t, h, 1)
	assert.Equal(t, "hi <all>", h[0].Message)
}

func TestHubUnknownUserStillBroadcast(t *testing.T) {
	store := NewStore()
	srv := New(Options{Store: store})
	hs := httptest.NewServer(srv.SocketHandler())
	defer hs.Close()

	c, msgs := connectClient(t, socketURL(hs), 77, "ghost")
	require.NoError(t, c.Send(context.Background(), "boo"))
	m := receive(t, msgs)
	assert.Equal(t, "boo", m.Text)
	assert.Nil(t, m.AvatarURL)
	assert.Empty(t, store.History(77))
}

func TestHubDropsMalformedFrames(t *testing.T) {
	store := NewStore()
	store.AddUser(User{ID: 1, Username: "ala"})
	srv := New(Options{Store: store})
	hs := httptest.NewServer(srv.SocketHandler())
	defer hs.Close()

	ctx := context.Background()
	raw, _, err := websocket.Dial(ctx, socketURL(hs), nil)
	require.NoError(t, err)
	defer raw.CloseNow()

	for _, frame := range []string{`{not json`, `{"message":"no user"}`, `[]`} {
		require.NoError(t, raw.Write(ctx, websocket.MessageText, []byte(frame)))
	}
	require.NoError(t, raw.Write(ctx, websocket.MessageText, []byte(`{"message":"ok","username":"ala","user_id":"1"}`)))

	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, data, err := raw.Read(readCtx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"ok","username":"ala","user_id":1}`, string(data))
	assert.Len(t, store.History(1), 1)
}

func TestWidgetAgainstServer(t *testing.T) {
	store := NewStore()
	token := store.AddUser(User{ID: 1, Username: "ala"})
	store.AddUser(User{ID: 2, Username: "ola"})
	_, err := store.Append(2, "earlier")
	require.NoError(t, err)

	srv := New(Options{Store: store})
	web := httptest.NewServer(srv.Handler())
	defer web.Close()
	sock := httptest.NewServer(srv.SocketHandler())
	defer sock.Close()

	history := rest.NewClient(web.URL)
	history.SetSessionCookie(&http.Cookie{Name: "sessionid", Value: token})

	cfg := livechat.DefaultConfig()
	cfg.URL = socketURL(sock)
	cfg.UserID = 1
	cfg.Username = "ala"
	surface := livechat.NewMemorySurface(40, 300)

	w, err := livechat.Bootstrap(context.Background(), livechat.Options{
		UserID:    1,
		Username:  "ala",
		Transport: livechat.NewClient(cfg),
		History:   history,
		Surface:   surface,
	})
	require.NoError(t, err)
	require.NotNil(t, w)
	defer w.Close()

	require.Len(t, surface.Snapshot().Messages, 1)
	assert.Contains(t, surface.Snapshot().Messages[0], "earlier")

	require.Eventually(t, func() bool { return srv.Hub().Peers() == 1 }, 3*time.Second, 10*time.Millisecond)
	// The socket may report open slightly after the server registers it.
	require.Eventually(t, func() bool {
		surface.SetInput("hello from the widget")
		_ = w.Send(context.Background())
		return surface.Snapshot().Input == ""
	}, 3*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool { return len(surface.Snapshot().Messages) == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.Contains(t, surface.Snapshot().Messages[1], `class="message sent"`)
	assert.Contains(t, surface.Snapshot().Messages[1], "hello from the widget")
}
