package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/threadmark"
	"github.com/fwojciec/threadmark/crawl"
	"github.com/fwojciec/threadmark/fs"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	Logger      *slog.Logger
	Extractions threadmark.ExtractionService
	Store       threadmark.DiscussionStore
	OutDir      string
	Crawler     *crawl.Crawler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool   `short:"v" env:"THREADMARK_VERBOSE" help:"Enable debug logging"`
	DB      string `name:"db" env:"THREADMARK_DB" help:"Extraction index database path"`

	Extract ExtractCmd `cmd:"" help:"Extract every discussion of a listing to markdown"`
	List    ListCmd    `cmd:"" help:"List extracted discussions"`
	Delete  DeleteCmd  `cmd:"" help:"Remove a discussion from the extraction index"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL   string `arg:"" help:"Competition or discussion listing URL"`
	Limit int    `arg:"" optional:"" help:"Maximum number of discussions to extract (0 = all)"`

	Target       string   `enum:"discussions,writeups" default:"discussions" help:"Listing to crawl: competition discussions or solution write-ups"`
	Out          string   `short:"o" env:"THREADMARK_OUT" help:"Output directory (default kaggle_discussions or kaggle_writeups)"`
	Format       []string `default:"md" help:"Output formats, comma separated (md, json)"`
	Append       bool     `help:"Write into the existing output directory instead of replacing it"`
	SkipExisting bool     `help:"Skip discussions already in the index (requires --append)"`

	Mode    string `enum:"live,rendered,static" default:"live" env:"THREADMARK_MODE" help:"Page capability: live DOM, rendered snapshot or static HTTP"`
	Headful bool   `help:"Show the browser window"`
	Chrome  string `env:"THREADMARK_CHROME" help:"Chrome binary path"`

	Markers  string `env:"THREADMARK_MARKERS" help:"YAML file overriding the structural markers"`
	Strategy string `enum:"level,top-level" default:"level" help:"Parent resolution strategy"`
	Fallback string `enum:"trafilatura,readability,none" default:"trafilatura" help:"Main post extractor used when no topic header matches"`

	Timeout       time.Duration `default:"30s" env:"THREADMARK_TIMEOUT" help:"Navigation timeout"`
	ListingSettle time.Duration `default:"3s" help:"Wait after loading a listing page"`
	Settle        time.Duration `default:"3s" help:"Wait after loading a discussion"`
	Delay         time.Duration `default:"2s" help:"Wait between discussions"`
	Interval      time.Duration `default:"1s" env:"THREADMARK_INTERVAL" help:"Minimum interval between navigations"`
	MaxPages      int           `default:"50" help:"Listing page ceiling"`
}

// Validate checks flag combinations. Kong calls it after parsing.
func (c *ExtractCmd) Validate() error {
	if c.SkipExisting && !c.Append {
		return errors.New("--skip-existing requires --append")
	}
	if c.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	if c.MaxPages <= 0 {
		return errors.New("--max-pages must be positive")
	}
	if _, err := c.Formats(); err != nil {
		return err
	}
	return nil
}

// OutDir returns the output directory, defaulting by target.
func (c *ExtractCmd) OutDir() string {
	if c.Out != "" {
		return c.Out
	}
	if c.Target == "writeups" {
		return "kaggle_writeups"
	}
	return "kaggle_discussions"
}

// Formats parses the --format values, dropping duplicates.
func (c *ExtractCmd) Formats() ([]fs.Format, error) {
	var formats []fs.Format
	seen := make(map[fs.Format]bool)
	for _, name := range c.Format {
		f, err := fs.ParseFormat(name)
		if err != nil {
			return nil, errors.New(threadmark.ErrorMessage(err))
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, errors.New("--format must name at least one format")
	}
	return formats, nil
}

// DeleteCmd is the "delete" subcommand. Output files are left in place.
type DeleteCmd struct {
	Discussion string `arg:"" help:"Discussion URL or extraction ID"`
	Force      bool   `help:"Confirm deletion"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Limit int `short:"n" help:"Maximum number of records to show"`
}
