package main

import (
	"fmt"

	"github.com/fwojciec/threadmark"
)

// Run executes the delete command. A discussion URL is looked up in the
// index; anything else is taken as an extraction ID.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return threadmark.Errorf(threadmark.EINVALID, "use --force to confirm deletion")
	}

	id, label := c.Discussion, c.Discussion
	if originOf(c.Discussion) != "" {
		e, err := deps.Extractions.FindExtractionBySourceURL(deps.Ctx, c.Discussion)
		if threadmark.ErrorCode(err) == threadmark.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: %s is not in the index. Use 'threadmark list' to see extracted discussions.\n", c.Discussion)
			return err
		} else if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", threadmark.ErrorMessage(err))
			return err
		}
		id, label = e.ID, e.Title
	}

	if err := deps.Extractions.DeleteExtraction(deps.Ctx, id); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", threadmark.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted %q from the index\n", label)
	return nil
}
