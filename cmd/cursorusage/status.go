package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/tui"
)

// refreshOnce runs a single refresh cycle outside of any engine.
func (a *app) refreshOnce(ctx context.Context) core.Snapshot {
	return a.provider.Fetch(ctx, a.session, a.cfg.RefreshOptions())
}

func newStatusCommand(flags *globalFlags) *cobra.Command {
	var (
		asJSON bool
		color  bool
		width  int
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print a one-line usage summary for status bars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			snap := a.refreshOnce(cmd.Context())
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, snap)
			case color:
				fmt.Fprintln(out, tui.RenderStatusLine(snap, a.cfg.UI.DisplayMode, a.cfg.UI, width))
			default:
				fmt.Fprintln(out, tui.StatusLine(snap, a.cfg.UI.DisplayMode))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full snapshot as JSON")
	cmd.Flags().BoolVar(&color, "color", false, "color the status line for terminal status bars")
	cmd.Flags().IntVar(&width, "width", 0, "truncate the status line to this many cells")
	return cmd
}

func newDetailsCommand(flags *globalFlags) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "details",
		Short: "Print the usage details panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			snap := a.refreshOnce(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), tui.Details(snap, a.cfg.UI, width, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "panel width in cells")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
