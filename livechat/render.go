package livechat

import (
	"html"
	"strconv"
	"strings"
	"time"
)

// Placeholder texts shown in place of the message list.
const (
	EmptyChatText    = "No messages yet. Be the first to write something!"
	HistoryErrorText = "Unable to load messages"
)

// Toggle button icons.
const (
	IconCollapsed = `<i class="fas fa-chevron-up"></i>`
	IconExpanded  = `<i class="fas fa-chevron-down"></i>`
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
	"\n", "<br>",
)

// EscapeHTML escapes untrusted text for insertion as markup. Newlines become
// <br>, which is the only markup the result can contain.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// RenderMessage renders one message as a list item fragment.
func RenderMessage(m ChatMessage) string {
	side := "received"
	if m.IsSelf {
		side = "sent"
	}
	var b strings.Builder
	b.WriteString(`<div class="message `)
	b.WriteString(side)
	b.WriteString(`">`)
	if m.AvatarURL != nil {
		b.WriteString(`<img class="avatar" src="`)
		b.WriteString(EscapeHTML(*m.AvatarURL))
		b.WriteString(`" alt="">`)
	}
	b.WriteString(`<div class="sender">`)
	b.WriteString(EscapeHTML(m.Username))
	b.WriteString(`</div><div class="content">`)
	b.WriteString(EscapeHTML(m.Text))
	b.WriteString(`</div><div class="timestamp">`)
	b.WriteString(html.EscapeString(FormatTimestamp(m.Timestamp)))
	b.WriteString(`</div></div>`)
	return b.String()
}

// RenderPlaceholder renders the empty-state block.
func RenderPlaceholder(text string) string {
	return `<div class="empty-chat">` + EscapeHTML(text) + `</div>`
}

// FormatTimestamp reduces a message timestamp to "15:04". Unparseable input
// yields "--:--".
func FormatTimestamp(ts string) string {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("15:04")
		}
	}
	return "--:--"
}

// BadgeText is the unread indicator label, capped at "9+".
func BadgeText(unread int) string {
	if unread > 9 {
		return "9+"
	}
	return strconv.Itoa(unread)
}
