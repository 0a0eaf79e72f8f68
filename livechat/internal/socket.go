// Package internal holds the socket wrapper behind livechat.Client.
package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// MaxFrameSize bounds a single inbound chat frame.
const MaxFrameSize = 64 << 10

// DialOptions configure one connection attempt.
type DialOptions struct {
	Header           http.Header // sent with the handshake, e.g. the session cookie
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 0 waits for frames indefinitely
	WriteTimeout     time.Duration
}

// Socket is one open chat socket. Frames are JSON text messages.
type Socket struct {
	ws           *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Dial opens a socket to url.
func Dial(ctx context.Context, url string, opts DialOptions) (*Socket, error) {
	if opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: opts.Header})
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(MaxFrameSize)
	return &Socket{ws: ws, readTimeout: opts.ReadTimeout, writeTimeout: opts.WriteTimeout}, nil
}

// Next returns the payload of the next text frame. Binary frames are
// skipped. Decoding is left to the caller so that one malformed frame does
// not cost the connection.
func (s *Socket) Next(ctx context.Context) ([]byte, error) {
	for {
		data, typ, err := s.read(ctx)
		if err != nil {
			return nil, err
		}
		if typ == websocket.MessageText {
			return data, nil
		}
	}
}

func (s *Socket) read(ctx context.Context) ([]byte, websocket.MessageType, error) {
	if s.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.readTimeout)
		defer cancel()
	}
	typ, data, err := s.ws.Read(ctx)
	return data, typ, err
}

// Send encodes v as one JSON text frame.
func (s *Socket) Send(ctx context.Context, v any) error {
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, s.ws, v)
}

func (s *Socket) Close(code websocket.StatusCode, reason string) error {
	return s.ws.Close(code, reason)
}
