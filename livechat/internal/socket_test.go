package internal

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
)

func TestSocketSkipsBinaryFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer ws.CloseNow()
		ctx := r.Context()
		_ = ws.Write(ctx, websocket.MessageBinary, []byte{0x01, 0x02})
		_ = ws.Write(ctx, websocket.MessageText, []byte(`{"message":"hi"}`))
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		_ = ws.Write(ctx, websocket.MessageText, data)
		_, _, _ = ws.Read(ctx)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), DialOptions{
		HandshakeTimeout: time.Second,
		WriteTimeout:     time.Second,
	})
	require.NoError(t, err)
	defer s.Close(websocket.StatusNormalClosure, "")

	data, err := s.Next(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hi"}`, string(data))

	require.NoError(t, s.Send(ctx, map[string]int{"user_id": 7}))
	data, err = s.Next(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":7}`, string(data))
}

func TestDialFailsWithoutServer(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/", DialOptions{HandshakeTimeout: time.Second})
	assert.Error(t, err)
}
