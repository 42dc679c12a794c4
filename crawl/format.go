package crawl

import (
	"fmt"

	"github.com/fwojciec/threadmark"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatStats summarizes the reply tree of a discussion.
func FormatStats(d *threadmark.Discussion) string {
	if nested := d.NestedReplies(); nested > 0 {
		return fmt.Sprintf("%d top-level, %d nested replies", len(d.Replies), nested)
	}
	return fmt.Sprintf("%d replies total", d.TotalReplies())
}
