package telegram

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	reCodeBlock  = regexp.MustCompile("(?s)```[\\w-]*\\n?([\\s\\S]*?)```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`(^|[^a-zA-Z0-9])_([^_\n]+)_([^a-zA-Z0-9]|$)`)
	reStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reBullet     = regexp.MustCompile(`(?m)^[-*]\s+`)
)

// markdownToTelegramHTML converts the markdown the model tends to emit
// into the HTML subset Telegram accepts. Code spans are tokenized
// first so their contents survive the other rewrites untouched.
func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}
	if !strings.ContainsAny(text, "`*_~#-") {
		return html.EscapeString(text)
	}

	type replacement struct {
		token string
		html  string
	}
	var replacements []replacement

	text = reCodeBlock.ReplaceAllStringFunc(text, func(src string) string {
		m := reCodeBlock.FindStringSubmatch(src)
		code := ""
		if len(m) >= 2 {
			code = m[1]
		}
		token := fmt.Sprintf("\x00CB%d\x00", len(replacements))
		replacements = append(replacements, replacement{
			token: token,
			html:  "<pre><code>" + html.EscapeString(code) + "</code></pre>",
		})
		return token
	})

	text = reInlineCode.ReplaceAllStringFunc(text, func(src string) string {
		m := reInlineCode.FindStringSubmatch(src)
		code := ""
		if len(m) >= 2 {
			code = m[1]
		}
		token := fmt.Sprintf("\x00IC%d\x00", len(replacements))
		replacements = append(replacements, replacement{
			token: token,
			html:  "<code>" + html.EscapeString(code) + "</code>",
		})
		return token
	})

	text = reHeading.ReplaceAllString(text, "$1")
	text = html.EscapeString(text)
	text = reBold.ReplaceAllString(text, "<b>$1</b>")
	text = reItalic.ReplaceAllString(text, "$1<i>$2</i>$3")
	text = reStrike.ReplaceAllString(text, "<s>$1</s>")
	text = reBullet.ReplaceAllString(text, "• ")

	for _, r := range replacements {
		text = strings.ReplaceAll(text, r.token, r.html)
	}
	return text
}
