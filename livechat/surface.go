package livechat

import (
	"strings"
	"sync"
)

// Surface is the set of page elements the widget drives: the message list
// (chat-messages), the input (chat-input), the widget root (live-chat-widget),
// its toggle button (toggle-chat), the unread badge (new-message-indicator)
// and the emoji picker (emoji-picker).
type Surface interface {
	ShowPlaceholder(fragment string)
	ReplaceMessages(fragments []string)
	AppendMessage(fragment string)
	RemovePlaceholder()

	ScrollMetrics() ScrollMetrics
	ScrollToBottom()

	Input() string
	SetInput(text string)
	FocusInput()

	SetCollapsed(collapsed bool)
	SetToggleIcon(fragment string)
	SetBadge(text string, visible bool)
	SetEmojiPickerOpen(open bool)
}

// ScrollMetrics mirrors the scroll geometry of the message list, in pixels.
type ScrollMetrics struct {
	ScrollHeight int
	ScrollTop    int
	ClientHeight int
}

// ScrollTolerance is how close to the bottom the list must be to count as pinned.
const ScrollTolerance = 30

// Pinned reports whether the list is scrolled to its bottom edge.
func (m ScrollMetrics) Pinned() bool {
	return m.ScrollHeight-m.ScrollTop-m.ClientHeight < ScrollTolerance
}

// MemorySurface is an in-memory Surface. Every list entry, the placeholder
// included, occupies RowHeight pixels.
type MemorySurface struct {
	mu           sync.Mutex
	rowHeight    int
	clientHeight int
	scrollTop    int

	placeholder string
	messages    []string
	input       string
	focused     bool
	collapsed   bool
	toggleIcon  string
	badgeText   string
	badgeShown  bool
	pickerOpen  bool
}

// NewMemorySurface returns a surface whose list is clientHeight pixels tall.
func NewMemorySurface(rowHeight, clientHeight int) *MemorySurface {
	if rowHeight <= 0 {
		rowHeight = 40
	}
	if clientHeight <= 0 {
		clientHeight = 300
	}
	return &MemorySurface{rowHeight: rowHeight, clientHeight: clientHeight}
}

func (s *MemorySurface) ShowPlaceholder(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.placeholder = fragment
	s.clampLocked()
}

func (s *MemorySurface) ReplaceMessages(fragments []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeholder = ""
	s.messages = append([]string(nil), fragments...)
	s.clampLocked()
}

func (s *MemorySurface) AppendMessage(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, fragment)
}

func (s *MemorySurface) RemovePlaceholder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeholder = ""
	s.clampLocked()
}

func (s *MemorySurface) ScrollMetrics() ScrollMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ScrollMetrics{ScrollHeight: s.scrollHeightLocked(), ScrollTop: s.scrollTop, ClientHeight: s.clientHeight}
}

func (s *MemorySurface) ScrollToBottom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollTop = s.scrollHeightLocked() - s.clientHeight
}

// ScrollTo moves the list as a user would, clamped to the scrollable range.
func (s *MemorySurface) ScrollTo(top int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollTop = top
	s.clampLocked()
}

func (s *MemorySurface) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *MemorySurface) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = text
}

func (s *MemorySurface) FocusInput() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = true
}

func (s *MemorySurface) SetCollapsed(collapsed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = collapsed
	if collapsed {
		s.focused = false
	}
}

func (s *MemorySurface) SetToggleIcon(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggleIcon = fragment
}

func (s *MemorySurface) SetBadge(text string, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text != "" {
		s.badgeText = text
	}
	s.badgeShown = visible
}

func (s *MemorySurface) SetEmojiPickerOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pickerOpen = open
}

// SurfaceSnapshot is a copy of the visible state of a MemorySurface.
type SurfaceSnapshot struct {
	Placeholder  string
	Messages     []string
	Input        string
	Focused      bool
	Collapsed    bool
	ToggleIcon   string
	BadgeText    string
	BadgeVisible bool
	PickerOpen   bool
	Scroll       ScrollMetrics
}

// Snapshot returns the current state.
func (s *MemorySurface) Snapshot() SurfaceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SurfaceSnapshot{
		Placeholder:  s.placeholder,
		Messages:     append([]string(nil), s.messages...),
		Input:        s.input,
		Focused:      s.focused,
		Collapsed:    s.collapsed,
		ToggleIcon:   s.toggleIcon,
		BadgeText:    s.badgeText,
		BadgeVisible: s.badgeShown,
		PickerOpen:   s.pickerOpen,
		Scroll:       ScrollMetrics{ScrollHeight: s.scrollHeightLocked(), ScrollTop: s.scrollTop, ClientHeight: s.clientHeight},
	}
}

// HTML returns the inner markup of the message list.
func (s *MemorySurface) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placeholder + strings.Join(s.messages, "")
}

func (s *MemorySurface) scrollHeightLocked() int {
	rows := len(s.messages)
	if s.placeholder != "" {
		rows++
	}
	return max(rows*s.rowHeight, s.clientHeight)
}

func (s *MemorySurface) clampLocked() {
	s.scrollTop = min(max(s.scrollTop, 0), s.scrollHeightLocked()-s.clientHeight)
}
