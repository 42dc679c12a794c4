package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/threadmark"
	"github.com/fwojciec/threadmark/crawl"
	"github.com/mattn/go-isatty"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	if deps.Crawler == nil {
		return threadmark.Errorf(threadmark.EINTERNAL, "extract is not wired")
	}

	fmt.Fprintf(deps.Stdout, "Extracting discussions from %s\n", c.URL)

	result, err := deps.Crawler.Crawl(deps.Ctx, c.URL, c.Limit, c.progress(deps.Stdout))
	if err != nil {
		if abortErr := deps.Crawler.Abort(); abortErr != nil {
			deps.Logger.Warn("discarding output failed", "err", abortErr)
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", threadmark.ErrorMessage(err))
		return err
	}
	if err := deps.Crawler.Commit(deps.Ctx, result); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", threadmark.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Extracted %d of %d discussions to %s", result.Extracted, result.Discovered, deps.OutDir)
	if result.Failed > 0 || result.Skipped > 0 {
		fmt.Fprintf(deps.Stdout, " (%d failed, %d skipped)", result.Failed, result.Skipped)
	}
	fmt.Fprintln(deps.Stdout)
	return nil
}

// progress renders crawl events. On a terminal the counter is redrawn in
// place; otherwise each discussion gets its own line.
func (c *ExtractCmd) progress(w io.Writer) crawl.ProgressFunc {
	tty := isTerminal(w)
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(w, "  Found %d discussions\n", e.Total)
		case crawl.ProgressCompleted, crawl.ProgressSkipped, crawl.ProgressFailed:
			status := "ok"
			switch e.Type {
			case crawl.ProgressSkipped:
				status = "skip"
			case crawl.ProgressFailed:
				status = "fail"
			}
			line := fmt.Sprintf("[%d/%d] %s %s", e.Completed, e.Total, status, crawl.TruncateURL(e.URL, 60))
			if tty {
				fmt.Fprintf(w, "\r\033[K%s", line)
			} else {
				fmt.Fprintln(w, line)
			}
		case crawl.ProgressFinished:
			if tty {
				fmt.Fprintln(w)
			}
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
