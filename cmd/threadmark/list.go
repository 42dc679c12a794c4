package main

import (
	"fmt"

	"github.com/fwojciec/threadmark"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	records, err := deps.Extractions.FindExtractions(deps.Ctx, threadmark.ExtractionFilter{Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", threadmark.ErrorMessage(err))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No discussions extracted. Use 'threadmark extract' to add some.")
		return nil
	}

	for _, e := range records {
		fmt.Fprintf(deps.Stdout, "%02d  %s  %d replies  %s  %s\n", e.Position, e.Title, e.Replies, e.SourceURL, e.FilePath)
	}

	return nil
}
