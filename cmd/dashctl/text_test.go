package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockstorm/widgets-go/chart"
	"github.com/stockstorm/widgets-go/livechat"
)

func TestPlainTextMessage(t *testing.T) {
	msg := livechat.ChatMessage{
		Username:  "ala <admin>",
		Text:      "2 < 3\nand 4 > 1",
		Timestamp: "2024-05-01 10:03:59",
	}
	got := plainText(livechat.RenderMessage(msg))
	assert.Equal(t, "ala <admin>: 2 < 3\n    and 4 > 1  10:03", got)
}

func TestPlainTextStripsMarkup(t *testing.T) {
	assert.Equal(t, "Total +4%", plainText(`<p>Total <b>+4%</b></p><script>alert(1)</script>`))
	assert.Equal(t, livechat.EmptyChatText, plainText(livechat.RenderPlaceholder(livechat.EmptyChatText)))
}

func TestTerminalSurfaceCollapse(t *testing.T) {
	var out bytes.Buffer
	s := newTerminalSurface(&out)

	s.AppendMessage(livechat.RenderMessage(livechat.ChatMessage{Username: "ala", Text: "one", Timestamp: "2024-05-01 10:00:00"}))
	s.SetCollapsed(true)
	s.AppendMessage(livechat.RenderMessage(livechat.ChatMessage{Username: "ola", Text: "two", Timestamp: "2024-05-01 10:01:00"}))
	s.SetBadge("1", true)
	s.SetCollapsed(false)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"ala: one  10:00",
		"-- chat collapsed (/toggle to expand) --",
		"-- 1 unread --",
		"-- chat expanded --",
		"ala: one  10:00",
		"ola: two  10:01",
	}, lines)
}

func TestPrintChart(t *testing.T) {
	page := chart.NewMemoryPage().Add(chart.PortfolioContainerID).Add(chart.PortfolioAnalysisID)
	page.SetHTML(chart.PortfolioAnalysisID, "<p>2 bots</p>")
	data, err := chart.ParseData(`{"labels":["2024-05-01","2024-05-02"],"datasets":[` +
		`{"label":"BTC grid","data":[10,12.5]},{"label":"ETH DCA","data":[10,null]}]}`)
	require.NoError(t, err)
	res := &chart.Result{Config: &chart.Config{Data: data}}

	var out bytes.Buffer
	require.NoError(t, printChart(&out, page, chart.PortfolioContainerID, res, nil, chart.PortfolioAnalysisID))
	s := out.String()
	assert.Contains(t, s, "2024-05-01 .. 2024-05-02 (2 points)")
	assert.Contains(t, s, "BTC grid")
	assert.Contains(t, s, "12.50")
	assert.Contains(t, s, "10.00")
	assert.Contains(t, s, "[portfolio-analysis]\n2 bots")
}

func TestPrintChartError(t *testing.T) {
	page := chart.NewMemoryPage().Add(chart.BotContainerID)
	page.SetHTML(chart.BotContainerID, `<div class="alert alert-danger">Bot not found</div>`)
	loadErr := errors.New("boom")

	var out bytes.Buffer
	err := printChart(&out, page, chart.BotContainerID, nil, loadErr)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, "Bot not found\n", out.String())
}

func TestLastValue(t *testing.T) {
	tests := []struct {
		data any
		want string
	}{
		{[]any{1.0, 2.5}, "2.50"},
		{[]any{3.0, nil}, "3.00"},
		{[]any{map[string]any{"x": 1.0, "y": 7.0}}, "7.00"},
		{[]any{"n/a"}, "-"},
		{nil, "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lastValue(tt.data))
	}
}

func TestPrintChartNumericLabels(t *testing.T) {
	page := chart.NewMemoryPage().Add(chart.BotContainerID)
	data, err := chart.ParseData(`{"labels":[1,2,3],"datasets":[{"label":"P","data":[1,2,3],"stepped":true}]}`)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printChart(&out, page, chart.BotContainerID, &chart.Result{Config: &chart.Config{Data: data}}, nil))
	assert.Contains(t, out.String(), "1 .. 3 (3 points)")
	assert.Contains(t, out.String(), "3.00")
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "abc", shorten("abc", 5))
	assert.Equal(t, "ab...", shorten("abcdef", 2))
}
