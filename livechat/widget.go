package livechat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stockstorm/widgets-go/livechat/rest"
	"github.com/stockstorm/widgets-go/logging"
)

// Transport is the connection the widget sends through. *Client implements it.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, text string) error
	State() ConnectionState
	OnMessage(fn func(ChatMessage))
	Close() error
}

// HistorySource loads the message history. *rest.Client implements it.
type HistorySource interface {
	GetMessages(ctx context.Context) (*rest.MessagesResponse, error)
}

// UIState is the widget's presentation state. Only Collapsed is persisted.
type UIState struct {
	Collapsed       bool
	UnreadCount     int
	EmojiPickerOpen bool
}

// ClickTarget classifies a click elsewhere on the page for the emoji picker.
type ClickTarget int

const (
	TargetOther ClickTarget = iota
	TargetEmojiPicker
	TargetEmojiButton
)

// Options wires a Widget.
type Options struct {
	UserID   int64
	Username string

	Transport Transport
	History   HistorySource
	Prefs     PrefStore // defaults to MemoryPrefs
	Surface   Surface
	Logger    logging.Logger
}

// Widget is the live chat widget: a message view fed by history and the
// socket, plus collapse, unread and emoji picker state.
type Widget struct {
	transport Transport
	history   HistorySource
	prefs     PrefStore
	surface   Surface
	logger    logging.Logger

	mu          sync.Mutex
	ui          UIState
	messages    []ChatMessage
	placeholder bool
}

// NewWidget validates opts and builds a widget without touching the network.
func NewWidget(opts Options) (*Widget, error) {
	if opts.Transport == nil || opts.History == nil || opts.Surface == nil {
		return nil, NewError(ErrorInvalidConfig, "widget needs a transport, a history source and a surface")
	}
	prefs := opts.Prefs
	if prefs == nil {
		prefs = &MemoryPrefs{}
	}
	return &Widget{
		transport: opts.Transport,
		history:   opts.History,
		prefs:     prefs,
		surface:   opts.Surface,
		logger:    logging.OrNop(opts.Logger),
	}, nil
}

// Bootstrap builds and initializes the widget for a page. Anonymous sessions
// and pages without the widget markup get no widget: it returns nil, nil.
func Bootstrap(ctx context.Context, opts Options) (*Widget, error) {
	logger := logging.OrNop(opts.Logger)
	if opts.UserID == 0 || opts.Username == "" {
		logger.Debug("chat widget skipped: anonymous session", nil)
		return nil, nil
	}
	if opts.Surface == nil {
		logger.Debug("chat widget skipped: no widget on page", nil)
		return nil, nil
	}
	w, err := NewWidget(opts)
	if err != nil {
		return nil, err
	}
	if err := w.Initialize(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// Initialize restores the collapsed flag, loads history and connects.
// A history failure only shows a placeholder; a connect error is returned.
func (w *Widget) Initialize(ctx context.Context) error {
	collapsed, err := w.prefs.Collapsed()
	if err != nil {
		w.logger.Warn("restore collapsed flag", map[string]any{"error": err.Error()})
		collapsed = false
	}
	w.mu.Lock()
	w.ui.Collapsed = collapsed
	w.applyCollapsedLocked()
	w.mu.Unlock()

	if err := w.LoadHistory(ctx); err != nil {
		w.logger.Warn("load history", map[string]any{"error": err.Error()})
	}

	w.transport.OnMessage(w.HandleMessage)
	return w.transport.Connect(ctx)
}

// LoadHistory replaces the view with the server history. It does not retry.
func (w *Widget) LoadHistory(ctx context.Context) error {
	resp, err := w.history.GetMessages(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		w.messages = nil
		w.placeholder = true
		w.surface.ShowPlaceholder(RenderPlaceholder(HistoryErrorText))
		return WrapError(ErrorHistory, "load history", err)
	}
	if len(resp.Messages) == 0 {
		w.messages = nil
		w.placeholder = true
		w.surface.ShowPlaceholder(RenderPlaceholder(EmptyChatText))
		return nil
	}

	w.messages = make([]ChatMessage, 0, len(resp.Messages))
	fragments := make([]string, 0, len(resp.Messages))
	for _, info := range resp.Messages {
		msg := messageFromHistory(info)
		w.messages = append(w.messages, msg)
		fragments = append(fragments, RenderMessage(msg))
	}
	w.placeholder = false
	w.surface.ReplaceMessages(fragments)
	w.surface.ScrollToBottom()
	return nil
}

// Send sends the input text. Empty input or a socket that is not open leave
// the input untouched and send nothing. On success the input is cleared
// without waiting for the server echo.
func (w *Widget) Send(ctx context.Context) error {
	text := strings.TrimSpace(w.surface.Input())
	if text == "" {
		return nil
	}
	if state := w.transport.State(); state != StateOpen {
		w.logger.Debug("send skipped", map[string]any{"state": state.String()})
		return nil
	}
	if err := w.transport.Send(ctx, text); err != nil {
		if errors.Is(err, ErrNotConnected) {
			return nil
		}
		w.logger.Warn("send failed", map[string]any{"error": err.Error()})
		return err
	}
	w.surface.SetInput("")
	return nil
}

// HandleMessage appends an inbound message. The list stays pinned to the
// bottom only if it was pinned before the append.
func (w *Widget) HandleMessage(msg ChatMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pinned := w.surface.ScrollMetrics().Pinned()
	w.messages = append(w.messages, msg)
	w.surface.AppendMessage(RenderMessage(msg))
	if pinned {
		w.surface.ScrollToBottom()
	}
	if w.ui.Collapsed {
		w.ui.UnreadCount++
		w.surface.SetBadge(BadgeText(w.ui.UnreadCount), true)
	}
	if w.placeholder {
		w.placeholder = false
		w.surface.RemovePlaceholder()
	}
}

// ToggleCollapse flips and persists the collapsed flag. Expanding scrolls to
// the bottom, focuses the input and clears the unread count.
func (w *Widget) ToggleCollapse() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.ui.Collapsed = !w.ui.Collapsed
	if err := w.prefs.SetCollapsed(w.ui.Collapsed); err != nil {
		w.logger.Warn("persist collapsed flag", map[string]any{"error": err.Error()})
	}
	w.applyCollapsedLocked()
	if !w.ui.Collapsed {
		w.surface.ScrollToBottom()
		w.focusInputLocked()
	}
	return w.ui.Collapsed
}

// FocusInput focuses the input, which marks everything as read.
func (w *Widget) FocusInput() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focusInputLocked()
}

// HandleMessagesClick focuses the input when the widget is expanded.
func (w *Widget) HandleMessagesClick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ui.Collapsed {
		w.focusInputLocked()
	}
}

// ToggleEmojiPicker shows or hides the picker.
func (w *Widget) ToggleEmojiPicker() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ui.EmojiPickerOpen = !w.ui.EmojiPickerOpen
	w.surface.SetEmojiPickerOpen(w.ui.EmojiPickerOpen)
	return w.ui.EmojiPickerOpen
}

// PickEmoji appends glyph to the input and refocuses it.
func (w *Widget) PickEmoji(glyph string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.surface.SetInput(w.surface.Input() + glyph)
	w.focusInputLocked()
}

// HandleDocumentClick closes an open picker when the click landed outside
// both the picker and its button.
func (w *Widget) HandleDocumentClick(target ClickTarget) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ui.EmojiPickerOpen || target == TargetEmojiPicker || target == TargetEmojiButton {
		return
	}
	w.ui.EmojiPickerOpen = false
	w.surface.SetEmojiPickerOpen(false)
}

// State returns a copy of the UI state.
func (w *Widget) State() UIState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ui
}

// Messages returns the messages currently in the view, oldest first.
func (w *Widget) Messages() []ChatMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ChatMessage(nil), w.messages...)
}

// Close tears down the connection and any pending reconnect.
func (w *Widget) Close() error {
	return w.transport.Close()
}

func (w *Widget) applyCollapsedLocked() {
	w.surface.SetCollapsed(w.ui.Collapsed)
	if w.ui.Collapsed {
		w.surface.SetToggleIcon(IconCollapsed)
	} else {
		w.surface.SetToggleIcon(IconExpanded)
	}
}

func (w *Widget) focusInputLocked() {
	w.surface.FocusInput()
	w.ui.UnreadCount = 0
	w.surface.SetBadge("", false)
}
