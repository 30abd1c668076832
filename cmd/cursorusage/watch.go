package main

import (
	"context"
	"errors"
	"log"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/detect"
	"github.com/janekbaraniewski/cursorusage/internal/secrets"
	"github.com/janekbaraniewski/cursorusage/internal/tui"
)

func newWatchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show live usage, refreshing on the configured interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.app()
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), a)
		},
	}
}

func runWatch(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := a.engine()

	if a.cfg.AutoDetect {
		// Cursor rewrites its state DB constantly; only an account change
		// invalidates the session.
		w := detect.NewWatcher(func(path string) {
			if !a.locator.Resync(ctx) {
				return
			}
			log.Printf("[watch] credential in %s changed, invalidating session", path)
			engine.Invalidate()
		}, a.stateDBPath)
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Printf("[watch] state DB watcher stopped: %v", err)
			}
		}()
	}

	return tui.Run(ctx, engine, a.cfg.UI, tui.Hooks{
		Logout: func() core.Invalidation {
			return a.logout(ctx, engine)
		},
		SaveDisplayMode: func(mode config.DisplayMode) error {
			return config.SaveDisplayModeTo(a.settingsPath, mode)
		},
	})
}

// logout stops polling, clears the session and removes the stored credential.
func (a *app) logout(ctx context.Context, engine *core.Engine) core.Invalidation {
	var inv core.Invalidation
	if engine != nil {
		inv = engine.Logout()
	} else {
		inv = a.session.Logout()
	}
	for _, key := range []string{secrets.SessionTokenKey, secrets.SessionSourceKey} {
		if err := a.store.Delete(ctx, key); err != nil && !errors.Is(err, secrets.ErrNotFound) {
			log.Printf("[watch] removing %s: %v", key, err)
		}
	}
	return inv
}
