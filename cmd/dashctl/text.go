package main

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// blockBreaks turns the block boundaries of widget markup into separators
// before tags are stripped.
var blockBreaks = strings.NewReplacer(
	`</div><div class="content">`, ": ",
	`</div><div class="timestamp">`, "  ",
	"<br>", "\n    ",
	"</p>", "\n",
	"</li>", "\n",
	"</h5>", "\n",
)

// plainText renders an HTML fragment for the terminal.
func plainText(fragment string) string {
	s := strict.Sanitize(blockBreaks.Replace(fragment))
	return strings.TrimSpace(html.UnescapeString(s))
}
