package livechat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"

	"github.com/stockstorm/widgets-go/livechat/internal"
	"github.com/stockstorm/widgets-go/logging"
)

// Client owns the chat socket. It keeps exactly one connection alive for its
// lifetime, recreating it after every close.
type Client struct {
	cfg        Config
	logger     logging.Logger
	dispatcher Dispatcher
	now        func() time.Time

	mu     sync.Mutex
	state  ConnectionState
	conn   *internal.Socket
	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient constructs a client with provided config.
// Use DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: logging.Nop{},
		now:    time.Now,
	}
}

// SetLogger overrides logger (optional).
func (c *Client) SetLogger(l logging.Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// OnMessage registers callback for inbound chat messages.
func (c *Client) OnMessage(fn func(ChatMessage)) { c.dispatcher.SetOnMessage(fn) }

// OnError registers callback for errors.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// OnStateChanged registers callback for connection state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) { c.dispatcher.SetOnState(fn) }

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect validates the configuration and starts the connection supervisor.
// It does not wait for the socket to open; dial failures are retried like
// any other close.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.cfg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return NewError(ErrorInvalidConfig, "connect called in state "+state.String())
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = StateConnecting
	c.mu.Unlock()

	c.dispatcher.DispatchState(StateEvent{OldState: StateIdle, NewState: StateConnecting})
	go c.supervise(runCtx)
	return nil
}

// Send publishes text as the configured user. Whitespace-only text and a
// socket that is not open are rejected without writing anything.
func (c *Client) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()
	if state != StateOpen || conn == nil {
		return ErrNotConnected
	}

	frame := OutboundFrame{Message: text, Username: c.cfg.Username, UserID: UserID(c.cfg.UserID)}
	if err := conn.Send(ctx, frame); err != nil {
		return WrapError(ErrorConnection, "write frame", err)
	}
	return nil
}

// Close cancels any pending reconnect, closes the socket and waits for the
// supervisor to exit. The client cannot be reused.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	old := c.state
	c.state = StateClosed
	cancel, conn, done := c.cancel, c.conn, c.done
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		// Cancelling the read context may already have torn the socket down.
		if err := conn.Close(websocket.StatusNormalClosure, "client close"); err != nil {
			c.logger.Debug("close socket", map[string]any{"error": err.Error()})
		}
	}
	if done != nil {
		<-done
	}
	c.dispatcher.DispatchState(StateEvent{OldState: old, NewState: StateClosed})
	return nil
}

// supervise runs connect/read cycles until ctx is cancelled, waiting a fixed
// delay between a close and the next dial.
func (c *Client) supervise(ctx context.Context) {
	defer close(c.done)
	retry := backoff.WithContext(backoff.NewConstantBackOff(c.cfg.ReconnectDelay), ctx)

	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		c.setState(StateClosedPendingRetry, err)

		delay := retry.NextBackOff()
		if delay == backoff.Stop {
			return
		}
		c.logger.Info("reconnect scheduled", map[string]any{"delay": delay.String()})
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		c.setState(StateConnecting, nil)
	}
}

// runOnce dials, marks the socket open and reads until it closes.
func (c *Client) runOnce(ctx context.Context) error {
	c.logger.Debug("dialing chat socket", map[string]any{"url": c.cfg.URL})

	conn, err := internal.Dial(ctx, c.cfg.URL, internal.DialOptions{
		Header:           c.cfg.Header,
		HandshakeTimeout: c.cfg.HandshakeTimeout,
		ReadTimeout:      c.cfg.ReadTimeout,
		WriteTimeout:     c.cfg.WriteTimeout,
	})
	if err != nil {
		c.logger.Warn("dial failed", map[string]any{"error": err.Error()})
		werr := WrapError(ErrorConnection, "dial", err)
		c.dispatcher.fireError(werr)
		return werr
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "client close")
		return ctx.Err()
	}
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateOpen, nil)
	c.logger.Info("chat socket open", nil)

	err = c.readLoop(ctx, conn)

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close(websocket.StatusGoingAway, "reconnecting")
	return err
}

func (c *Client) readLoop(ctx context.Context, conn *internal.Socket) error {
	for {
		data, err := conn.Next(ctx)
		if err != nil {
			if isExpectedDisconnect(ctx, err) {
				c.logger.Info("chat socket closed", map[string]any{"error": err.Error()})
				return WrapError(ErrorDisconnected, "socket closed", err)
			}
			c.logger.Warn("read loop exit", map[string]any{"error": err.Error()})
			werr := WrapError(ErrorDisconnected, "read", err)
			c.dispatcher.fireError(werr)
			return werr
		}
		if err := c.dispatcher.Dispatch(data, c.cfg.UserID, c.now()); err != nil {
			c.logger.Warn("dropping malformed frame", map[string]any{"error": err.Error()})
		}
	}
}

func (c *Client) setState(s ConnectionState, cause error) {
	c.mu.Lock()
	old := c.state
	if old == StateClosed || old == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	c.mu.Unlock()
	c.dispatcher.DispatchState(StateEvent{OldState: old, NewState: s, Error: cause})
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
