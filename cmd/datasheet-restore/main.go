// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// datasheet-restore rebuilds files from recorded captures of scanned pages.
//
// Every argument is a capture file. Captures are replayed in order into one
// restorer, so pages of a file may be spread over several captures. Files
// are written into the output directory once complete; with --force the
// files that are still incomplete at the end are written too.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"
	"github.com/zeebo/errs"

	"storj.io/datasheet"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) (err error) {
	var configPath string
	flagged := defaultOptions()

	flags := pflag.NewFlagSet("datasheet-restore", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "yaml file with default options")
	flagged.bind(flags)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: datasheet-restore [flags] capture...\n\nFlags:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	opts := defaultOptions()
	if configPath != "" {
		if err := opts.loadFile(configPath); err != nil {
			return err
		}
	}
	opts.override(flags, flagged)

	captures := flags.Args()
	if len(captures) == 0 {
		return errs.New("no capture files given")
	}

	log, err := newLogger(opts.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	config, err := opts.restorerConfig(log)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return errs.Wrap(err)
	}

	restorer, err := datasheet.NewRestorer(config)
	if err != nil {
		return err
	}

	for _, path := range captures {
		if err := replay(ctx, restorer, path, stdout); err != nil {
			return err
		}
	}

	return finish(ctx, restorer, opts.Force, stdout)
}

// replay feeds one capture into the restorer and prints the page outcomes.
func replay(ctx context.Context, restorer *datasheet.Restorer, path string, stdout io.Writer) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return errs.Wrap(err)
	}
	defer func() { err = errs.Combine(err, file.Close()) }()

	outcomes, err := restorer.Replay(ctx, file, nil)
	for _, outcome := range outcomes {
		printOutcome(stdout, outcome)
	}
	if err != nil {
		// pages that could not be registered are reported, but do not
		// stop the remaining captures.
		if datasheet.ErrRegistryFull.Has(err) || datasheet.ErrOutOfMemory.Has(err) {
			_, _ = fmt.Fprintf(stdout, "%s: %v\n", path, err)
			return nil
		}
		return errs.New("%s: %v", path, err)
	}
	return nil
}

func printOutcome(w io.Writer, outcome datasheet.Outcome) {
	_, _ = fmt.Fprintf(w, "%s page %d: %s\n", outcome.Name, outcome.Page, outcome.Message)
	if len(outcome.Remaining) > 0 {
		_, _ = fmt.Fprintf(w, "  scan again: %s\n", pageList(outcome.Remaining))
	}
	switch {
	case outcome.Saved:
		_, _ = fmt.Fprintf(w, "  %s: %s\n", outcome.Completion, outcome.Path)
	case outcome.SaveErr != nil:
		_, _ = fmt.Fprintf(w, "  %s, saving failed: %v\n", outcome.Completion, outcome.SaveErr)
	case outcome.Complete:
		_, _ = fmt.Fprintf(w, "  %s\n", outcome.Completion)
	}
}

// finish saves the files left open after all captures were replayed.
func finish(ctx context.Context, restorer *datasheet.Restorer, force bool, stdout io.Writer) error {
	var group errs.Group
	for _, info := range restorer.Files() {
		if !info.Complete && !force {
			_, _ = fmt.Fprintf(stdout, "%s: incomplete, %d of %d blocks", info.Name, info.Filled, info.Blocks)
			if len(info.Remaining) > 0 {
				_, _ = fmt.Fprintf(stdout, ", scan again: %s", pageList(info.Remaining))
			}
			_, _ = fmt.Fprintln(stdout)
			continue
		}

		result, err := restorer.Finalize(ctx, info.ID, force)
		if err != nil {
			group.Add(errs.New("%s: %v", info.Name, err))
			continue
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s, %d bytes\n", datasheet.MessageSaved, result.Path, result.Written)
	}
	return group.Err()
}

func pageList(pages []int) string {
	list := make([]string, len(pages))
	for i, page := range pages {
		list[i] = fmt.Sprint(page)
	}
	return strings.Join(list, " ")
}
