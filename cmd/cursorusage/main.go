package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	if os.Getenv("CURSORUSAGE_DEBUG") != "" {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&globalFlags{})
}

func newRootCommandWith(flags *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:          "cursorusage",
		Short:        "cursorusage shows Cursor IDE request quota and usage-based spend in your status bar.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), a)
		},
	}
	flags.register(root)

	root.AddCommand(
		newStatusCommand(flags),
		newDetailsCommand(flags),
		newWatchCommand(flags),
		newTokenCommand(flags),
		newDoctorCommand(flags),
		newVersionCommand(),
	)
	return root
}
