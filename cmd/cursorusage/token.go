package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/cursorusage/internal/identity"
	"github.com/janekbaraniewski/cursorusage/internal/parsers"
	"github.com/janekbaraniewski/cursorusage/internal/secrets"
)

func newTokenCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored Cursor session credential",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [credential]",
		Short: "Store a WorkosCursorSessionToken value (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			raw, err := credentialArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			id, err := identity.Resolve(raw)
			if err != nil {
				return fmt.Errorf("credential rejected: %w", err)
			}
			if err := a.store.Put(cmd.Context(), secrets.SessionTokenKey, id.Credential); err != nil {
				return fmt.Errorf("storing credential: %w", err)
			}
			// a manual credential is never replaced by auto-detection
			if err := a.store.Delete(cmd.Context(), secrets.SessionSourceKey); err != nil && !errors.Is(err, secrets.ErrNotFound) {
				return fmt.Errorf("storing credential: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored credential for %s\n", id.AccountID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored credential (masked) and its account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			raw, err := a.store.Get(cmd.Context(), secrets.SessionTokenKey)
			if errors.Is(err, secrets.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No credential stored.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading credential: %w", err)
			}
			printCredential(cmd.OutOrStdout(), raw, time.Now())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "clear",
		Aliases: []string{"logout"},
		Short:   "Remove the stored credential",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			a.logout(cmd.Context(), nil)
			fmt.Fprintln(cmd.OutOrStdout(), "Credential removed.")
			return nil
		},
	})

	return cmd
}

func credentialArg(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading credential from stdin: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no credential given")
	}
	return line, nil
}

func printCredential(w io.Writer, raw string, now time.Time) {
	fmt.Fprintf(w, "Credential: %s\n", parsers.MaskSecret(raw))
	if id, ok := identity.ExtractAccountID(raw); ok {
		fmt.Fprintf(w, "Account:    %s\n", id)
	} else {
		fmt.Fprintln(w, "Account:    (no account id in credential)")
	}
	if exp, ok := identity.ExpiresAt(raw); ok {
		state := "valid"
		if now.After(exp) {
			state = "expired"
		}
		fmt.Fprintf(w, "Expires:    %s (%s)\n", exp.Local().Format(time.RFC1123), state)
	}
}
