package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/config"
	"github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/dom"
)

type renderOptions struct {
	actions []string
	elapsed time.Duration
	tick    time.Duration
	body    bool
	output  string
}

func renderCmd(g *globals) *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo app headlessly",
		Long: `Mount the demo app into a headless document, apply actions, advance
the clock, and print the resulting HTML.

Examples:
  kinetic render
  kinetic render --action increment --action increment --action plot
  kinetic render --elapsed 5s --body
  kinetic render -o out.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return runRender(cmd.Context(), cfg.NewLogger(cmd.ErrOrStderr()), cfg, opts, out, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringArrayVarP(&opts.actions, "action", "a", nil, "Action to run after mount (repeatable)")
	cmd.Flags().DurationVar(&opts.elapsed, "elapsed", 0, "Advance the clock by this much before printing")
	cmd.Flags().DurationVar(&opts.tick, "tick", time.Second, "Clock interval")
	cmd.Flags().BoolVar(&opts.body, "body", false, "Print only the body content")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write HTML to a file instead of stdout")

	return cmd
}

func runRender(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts renderOptions, out, status io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s := newSession(cfg, logger, true, opts.tick)
	if err := s.app.Mount(ctx, s.doc.Body); err != nil {
		return err
	}

	actions := s.app.Actions()
	for _, name := range opts.actions {
		fn, ok := actions[name]
		if !ok {
			return errors.Newf(errors.CategoryMisuse, "unknown action %q", name).
				WithSuggestion(fmt.Sprintf("Available actions: %v", s.app.ActionNames()))
		}
		if err := fn(); err != nil {
			return err
		}
		s.loop.Drain()
	}
	s.loop.Advance(opts.elapsed)

	var page string
	if opts.body {
		page = dom.RenderChildren(s.doc.Body)
	} else {
		page = "<!DOCTYPE html>\n" + s.doc.HTML()
	}
	if _, err := fmt.Fprintln(out, page); err != nil {
		return err
	}

	fmt.Fprintf(status, "rendered %s, %s, %s\n",
		humanize.Bytes(uint64(len(page))),
		plural(s.patches, "patch", "patches"),
		plural(int(s.loop.FrameCount()), "frame", "frames"),
	)
	s.app.Unmount()
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return humanize.Comma(int64(n)) + " " + many
}
