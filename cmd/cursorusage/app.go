package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/detect"
	"github.com/janekbaraniewski/cursorusage/internal/providers/cursor"
	"github.com/janekbaraniewski/cursorusage/internal/secrets"
)

// globalFlags override settings.json for a single invocation.
type globalFlags struct {
	configPath   string
	billingModel string
	noAutoDetect bool
	browsers     bool
	apiBaseURL   string
	refresh      int
	displayMode  string
	stateDB      string

	store secrets.Store // replaces the keyring-backed store when set
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "settings file (default "+config.ConfigPath()+")")
	pf.StringVar(&f.billingModel, "billing-model", "", "fallback billing model label: free, pro, business, usage-based")
	pf.BoolVar(&f.noAutoDetect, "no-auto-detect", false, "only use the stored credential, never search the machine")
	pf.BoolVar(&f.browsers, "browser-cookies", false, "also search browser cookie stores for the cursor.com session")
	pf.StringVar(&f.apiBaseURL, "api-base-url", "", "dashboard API base URL")
	pf.IntVar(&f.refresh, "refresh", 0, "refresh interval in seconds (minimum 60)")
	pf.StringVar(&f.displayMode, "display-mode", "", "status line format: requests, percentage, both")
	pf.StringVar(&f.stateDB, "state-db", "", "path to Cursor's state.vscdb")
}

func (f *globalFlags) settingsPath() string {
	if f.configPath != "" {
		return f.configPath
	}
	return config.ConfigPath()
}

func (f *globalFlags) load() (config.Config, error) {
	cfg, err := config.LoadFrom(f.settingsPath())
	if err != nil {
		return cfg, fmt.Errorf("loading %s: %w", f.settingsPath(), err)
	}

	if f.billingModel != "" {
		m, ok := core.ParseBillingModel(f.billingModel)
		if !ok {
			return cfg, fmt.Errorf("unknown billing model %q", f.billingModel)
		}
		cfg.BillingModel = m
	}
	if f.noAutoDetect {
		cfg.AutoDetect = false
	}
	if f.apiBaseURL != "" {
		cfg.APIBaseURL = f.apiBaseURL
	}
	if f.refresh > 0 {
		cfg.UI.RefreshIntervalSeconds = max(f.refresh, int(core.MinRefreshInterval/time.Second))
	}
	if f.displayMode != "" {
		mode := config.DisplayMode(f.displayMode)
		if !mode.Valid() {
			return cfg, fmt.Errorf("unknown display mode %q", f.displayMode)
		}
		cfg.UI.DisplayMode = mode
	}
	return cfg, nil
}

// app is the object graph one command runs against.
type app struct {
	cfg          config.Config
	settingsPath string
	store        secrets.Store
	locator      *detect.Locator
	stateDBPath  string
	provider     *cursor.Provider
	session      *core.Session
}

func (f *globalFlags) app() (*app, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	var store secrets.Store = secrets.NewDefault(config.SecretsPath())
	if f.store != nil {
		store = f.store
	}
	return newApp(cfg, f.settingsPath(), store, detect.Options{
		StateDBPath: f.stateDB,
		Browsers:    f.browsers,
	}), nil
}

func newApp(cfg config.Config, settingsPath string, store secrets.Store, opts detect.Options) *app {
	if opts.StateDBPath == "" {
		opts.StateDBPath = detect.StateDBPath()
	}
	locator := detect.NewLocator(store, opts)
	log.Printf("[app] api=%s auto_detect=%v state_db=%s", cfg.APIBaseURL, cfg.AutoDetect, opts.StateDBPath)
	return &app{
		cfg:          cfg,
		settingsPath: settingsPath,
		store:        store,
		locator:      locator,
		stateDBPath:  opts.StateDBPath,
		provider:     cursor.New(cursor.NewClientFromConfig(cfg), locator),
		session:      core.NewSession(),
	}
}

func (a *app) engine() *core.Engine {
	e := core.NewEngine(a.provider, a.session, a.cfg.RefreshInterval())
	e.SetOptions(a.cfg.RefreshOptions())
	return e
}
