// ABOUTME: Markdown normalizer that strips markup noise before chunking and embedding
// ABOUTME: Pure text transform; malformed markdown passes through unchanged
package core

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	codeFenceRe  = regexp.MustCompile("(?s)```[^\n]*\n.*?```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	headingRe    = regexp.MustCompile(`#+\s+`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// CleanMarkdown strips markup down to plain prose: HTML tags, link
// targets, fenced code blocks, inline code backticks, heading markers,
// and emphasis. Runs of 3+ blank lines collapse to one.
func CleanMarkdown(text string) string {
	text = htmlTagRe.ReplaceAllString(text, "")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = codeFenceRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
