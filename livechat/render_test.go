package livechat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<script>alert(1)</script>", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{`a & b`, "a &amp; b"},
		{`"quoted" 'single'`, "&quot;quoted&quot; &#039;single&#039;"},
		{"line1\nline2", "line1<br>line2"},
		{"&lt;", "&amp;lt;"},
		{`<img src=x onerror="x">`, "&lt;img src=x onerror=&quot;x&quot;&gt;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeHTML(tt.in), "input %q", tt.in)
	}
}

func TestEscapeHTMLLeavesOnlyLineBreaks(t *testing.T) {
	inputs := []string{
		"<b>bold</b>\n<i>it</i>",
		"'\"<>&\n'\"<>&",
		"</div><div class=\"x\">",
	}
	for _, in := range inputs {
		out := strings.ReplaceAll(EscapeHTML(in), "<br>", "")
		assert.NotContains(t, out, "<", "input %q", in)
		assert.NotContains(t, out, ">", "input %q", in)
		assert.NotContains(t, out, `"`, "input %q", in)
		assert.NotContains(t, out, "'", "input %q", in)
	}
}

func TestRenderMessage(t *testing.T) {
	avatar := "/media/a.png"
	got := RenderMessage(ChatMessage{
		Username:  "<b>eve</b>",
		Text:      "hi <script>",
		Timestamp: "2024-05-01 10:03:59",
		IsSelf:    true,
		AvatarURL: &avatar,
	})

	assert.Contains(t, got, `class="message sent"`)
	assert.Contains(t, got, `<div class="sender">&lt;b&gt;eve&lt;/b&gt;</div>`)
	assert.Contains(t, got, `<div class="content">hi &lt;script&gt;</div>`)
	assert.Contains(t, got, `<div class="timestamp">10:03</div>`)
	assert.Contains(t, got, `src="/media/a.png"`)

	got = RenderMessage(ChatMessage{Username: "bob", Text: "x", Timestamp: "2024-05-01 10:03:59"})
	assert.Contains(t, got, `class="message received"`)
	assert.NotContains(t, got, "avatar")
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "09:05", FormatTimestamp("2024-01-02 09:05:00"))
	assert.Equal(t, "23:59", FormatTimestamp("2024-01-02T23:59:01Z"))
	assert.Equal(t, "--:--", FormatTimestamp("yesterday"))
}

func TestBadgeText(t *testing.T) {
	for n := 1; n <= 9; n++ {
		assert.Equal(t, string(rune('0'+n)), BadgeText(n))
	}
	assert.Equal(t, "9+", BadgeText(10))
	assert.Equal(t, "9+", BadgeText(250))
}

func TestRenderPlaceholder(t *testing.T) {
	assert.Equal(t, `<div class="empty-chat">`+EmptyChatText+`</div>`, RenderPlaceholder(EmptyChatText))
}
