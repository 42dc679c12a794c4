// Package fs provides file-based storage for extracted discussions.
package fs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/threadmark"
)

// maxTitleLen bounds the title part of a file name, in runes.
const maxTitleLen = 50

var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// FileName returns the markdown file name of the discussion at position in
// the crawl, e.g. "03_Winning solution write-up.md".
func FileName(position int, title string) string {
	return baseName(position, title) + ".md"
}

func baseName(position int, title string) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) > maxTitleLen {
		runes = runes[:maxTitleLen]
	}
	safe := unsafeFileChars.ReplaceAllString(string(runes), "_")
	if strings.Trim(safe, " .") == "" {
		safe = "discussion"
	}
	return fmt.Sprintf("%02d_%s", position, safe)
}

// FormatDiscussion renders a discussion as a markdown document. Replies are
// indented two spaces per depth, under headings that deepen with depth.
func FormatDiscussion(d *threadmark.Discussion) string {
	var b strings.Builder
	b.WriteString("# " + d.Title + "\n\n")
	b.WriteString("**URL**: " + d.URL + "\n")
	b.WriteString("**Total Comments**: " + strconv.Itoa(d.TotalReplies()) + "\n")
	b.WriteString("**Extracted**: " + d.ExtractedAt.Format(time.RFC3339) + "\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Main Post\n\n")
	b.WriteString("**Author**: " + authorLabel(d.MainAuthor) + "\n")
	if d.MainAuthor.ProfileURL != "" {
		b.WriteString("**Profile**: " + d.MainAuthor.ProfileURL + "\n")
	}
	if d.MainAuthor.Rank != "" {
		b.WriteString("**Rank**: " + d.MainAuthor.Rank + "\n")
	}
	if len(d.MainAuthor.Badges) > 0 {
		b.WriteString("**Badges**: " + strings.Join(d.MainAuthor.Badges, ", ") + "\n")
	}
	b.WriteString("**Upvotes**: " + strconv.Itoa(d.MainUpvotes) + "\n\n")
	if d.MainContent != "" {
		b.WriteString(d.MainContent + "\n\n")
	}
	b.WriteString("---\n\n")

	if len(d.Replies) > 0 {
		b.WriteString("## Replies\n\n")
		for _, r := range d.Replies {
			formatReply(&b, r)
		}
	}
	return b.String()
}

func formatReply(b *strings.Builder, r *threadmark.Reply) {
	indent := strings.Repeat("  ", r.Depth)
	heading := strings.Repeat("#", min(3+r.Depth, 6))

	b.WriteString(indent + heading + " Reply " + r.Number + "\n\n")
	b.WriteString(indent + "- **Author**: " + authorLabel(r.Author) + "\n")
	if r.Author.Rank != "" {
		b.WriteString(indent + "- **Rank**: " + r.Author.Rank + "\n")
	}
	if len(r.Author.Badges) > 0 {
		b.WriteString(indent + "- **Badges**: " + strings.Join(r.Author.Badges, ", ") + "\n")
	}
	b.WriteString(indent + "- **Upvotes**: " + strconv.Itoa(r.Upvotes) + "\n")
	if r.Timestamp != "" {
		b.WriteString(indent + "- **Timestamp**: " + r.Timestamp + "\n")
	}
	b.WriteString("\n")

	for _, line := range strings.Split(r.Content, "\n") {
		b.WriteString(indent + line + "\n")
	}
	b.WriteString("\n")

	for _, child := range r.Replies {
		formatReply(b, child)
	}
	if r.Depth == 0 {
		b.WriteString("---\n\n")
	}
}

func authorLabel(a threadmark.Author) string {
	return a.Name + " (@" + a.Username + ")"
}
