package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/detect"
)

func newDoctorCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check every place the Cursor credential is looked up",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Settings:  %s\n", a.settingsPath)
			fmt.Fprintf(out, "Secrets:   %s\n", config.SecretsPath())
			fmt.Fprintf(out, "State DB:  %s (%s)\n", a.stateDBPath, presence(a.stateDBPath))
			fmt.Fprintf(out, "API:       %s\n", a.cfg.APIBaseURL)
			fmt.Fprintf(out, "Auto-detect: %v\n\n", a.cfg.AutoDetect)

			printProbe(out, a.locator.Probe(cmd.Context()))
			return nil
		},
	}
}

func printProbe(w io.Writer, results []detect.ProbeResult) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "  ✗ %-16s %v\n", r.Strategy, r.Err)
		case r.Found && r.AccountID != "":
			fmt.Fprintf(w, "  ● %-16s %s (%s)\n", r.Strategy, r.Masked, r.AccountID)
		case r.Found:
			fmt.Fprintf(w, "  ◐ %-16s %s (no account id)\n", r.Strategy, r.Masked)
		default:
			fmt.Fprintf(w, "  · %-16s not found\n", r.Strategy)
		}
	}
}

func presence(path string) string {
	if _, err := os.Stat(path); err != nil {
		return "missing"
	}
	return "present"
}
