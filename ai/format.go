package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// Markdown-ish answer formatting. Code spans are lifted out first so no
// emphasis or heading rule ever fires inside them, then restored at the
// end. The transform is deterministic and idempotent on text that
// carries no raw markdown tokens.

var (
	fencedCodeRe = regexp.MustCompile("(?s)```(\\w+)?\n?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")

	h4Re = regexp.MustCompile(`(?m)^#### (.*)$`)
	h3Re = regexp.MustCompile(`(?m)^### (.*)$`)
	h2Re = regexp.MustCompile(`(?m)^## (.*)$`)
	h1Re = regexp.MustCompile(`(?m)^# (.*)$`)

	boldItalicRe = regexp.MustCompile(`\*\*\*(.*?)\*\*\*`)
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	boldUnderRe  = regexp.MustCompile(`__(.*?)__`)
	emUnderRe    = regexp.MustCompile(`_(.*?)_`)
	strikeRe     = regexp.MustCompile(`~~(.*?)~~`)

	orderedItemRe   = regexp.MustCompile(`(?m)^\d+\.\s+(.*)$`)
	unorderedItemRe = regexp.MustCompile(`(?m)^[-*+]\s+(.*)$`)
	quoteRe         = regexp.MustCompile(`(?m)^>\s+(.*)$`)
	linkRe          = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	hrRe            = regexp.MustCompile(`(?m)^---+$`)

	multiNewlineRe = regexp.MustCompile(`\n\n+`)
)

// FormatAnswer converts a markdown-flavored answer to the rich-text
// shape the clients render.
func FormatAnswer(text string) string {
	if text == "" {
		return ""
	}

	var stash []string
	stashPut := func(rendered string) string {
		stash = append(stash, rendered)
		return fmt.Sprintf("\x00%d\x00", len(stash)-1)
	}

	// Code first, so nothing below touches code content.
	text = fencedCodeRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := fencedCodeRe.FindStringSubmatch(m)
		return stashPut("<pre><code>" + strings.TrimSpace(sub[2]) + "</code></pre>")
	})
	text = inlineCodeRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := inlineCodeRe.FindStringSubmatch(m)
		return stashPut("<code>" + sub[1] + "</code>")
	})

	text = h4Re.ReplaceAllString(text, "<h4>$1</h4>")
	text = h3Re.ReplaceAllString(text, "<h3>$1</h3>")
	text = h2Re.ReplaceAllString(text, "<h2>$1</h2>")
	text = h1Re.ReplaceAllString(text, "<h1>$1</h1>")

	text = boldItalicRe.ReplaceAllString(text, "<strong><em>$1</em></strong>")
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "<em>$1</em>")
	text = boldUnderRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = emUnderRe.ReplaceAllString(text, "<em>$1</em>")
	text = strikeRe.ReplaceAllString(text, "<del>$1</del>")

	text = orderedItemRe.ReplaceAllString(text, "<li>$1</li>")
	text = unorderedItemRe.ReplaceAllString(text, "<li>$1</li>")
	text = quoteRe.ReplaceAllString(text, "<blockquote>$1</blockquote>")
	text = linkRe.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = hrRe.ReplaceAllString(text, "<hr/>")

	text = multiNewlineRe.ReplaceAllString(text, "<br/><br/>")
	text = strings.ReplaceAll(text, "\n", "<br/>")

	for i, rendered := range stash {
		text = strings.Replace(text, fmt.Sprintf("\x00%d\x00", i), rendered, 1)
	}

	return text
}
