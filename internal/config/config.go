package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/janekbaraniewski/cursorusage/internal/core"
)

type DisplayMode string

const (
	DisplayRequests   DisplayMode = "requests"
	DisplayPercentage DisplayMode = "percentage"
	DisplayBoth       DisplayMode = "both"
)

var displayModes = []DisplayMode{DisplayRequests, DisplayPercentage, DisplayBoth}

func (m DisplayMode) Valid() bool {
	for _, v := range displayModes {
		if m == v {
			return true
		}
	}
	return false
}

// Next cycles requests → percentage → both → requests.
func (m DisplayMode) Next() DisplayMode {
	for i, v := range displayModes {
		if v == m {
			return displayModes[(i+1)%len(displayModes)]
		}
	}
	return DisplayBoth
}

const (
	DefaultAPIBaseURL     = "https://www.cursor.com"
	DefaultHTTPTimeout    = 10
	minRefreshIntervalSec = 60
)

type UIConfig struct {
	RefreshIntervalSeconds int         `json:"refresh_interval_seconds"`
	DisplayMode            DisplayMode `json:"display_mode"`
	WarnThreshold          float64     `json:"warn_threshold"`
	CritThreshold          float64     `json:"crit_threshold"`
}

type Config struct {
	UI                 UIConfig          `json:"ui"`
	BillingModel       core.BillingModel `json:"billing_model"`
	AutoDetect         bool              `json:"auto_detect"`
	APIBaseURL         string            `json:"api_base_url"`
	HTTPTimeoutSeconds int               `json:"http_timeout_seconds"`
}

func DefaultConfig() Config {
	return Config{
		AutoDetect:         true,
		BillingModel:       core.BillingPro,
		APIBaseURL:         DefaultAPIBaseURL,
		HTTPTimeoutSeconds: DefaultHTTPTimeout,
		UI: UIConfig{
			RefreshIntervalSeconds: minRefreshIntervalSec,
			DisplayMode:            DisplayBoth,
			WarnThreshold:          0.75,
			CritThreshold:          0.90,
		},
	}
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshIntervalSeconds) * time.Second
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c Config) RefreshOptions() core.RefreshOptions {
	return core.RefreshOptions{ConfiguredModel: c.BillingModel, AutoDetect: c.AutoDetect}
}

func ConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "cursorusage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cursorusage")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "settings.json")
}

// SecretsPath is the sealed-file fallback of the secure cache.
func SecretsPath() string {
	return filepath.Join(ConfigDir(), "secrets.json")
}

func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config %s: %w", path, err)
	}

	return normalize(cfg), nil
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.UI.RefreshIntervalSeconds < minRefreshIntervalSec {
		cfg.UI.RefreshIntervalSeconds = minRefreshIntervalSec
	}
	if !cfg.UI.DisplayMode.Valid() {
		cfg.UI.DisplayMode = def.UI.DisplayMode
	}
	if cfg.UI.WarnThreshold <= 0 || cfg.UI.WarnThreshold >= 1 {
		cfg.UI.WarnThreshold = def.UI.WarnThreshold
	}
	if cfg.UI.CritThreshold <= 0 || cfg.UI.CritThreshold > 1 {
		cfg.UI.CritThreshold = def.UI.CritThreshold
	}
	if m, ok := core.ParseBillingModel(string(cfg.BillingModel)); ok {
		cfg.BillingModel = m
	} else {
		cfg.BillingModel = def.BillingModel
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.HTTPTimeoutSeconds <= 0 {
		cfg.HTTPTimeoutSeconds = def.HTTPTimeoutSeconds
	}
	return cfg
}

// saveMu guards read-modify-write cycles on the config file.
var saveMu sync.Mutex

func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

func SaveTo(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SaveDisplayMode persists a display mode into the config file (read-modify-write).
func SaveDisplayMode(mode DisplayMode) error {
	return SaveDisplayModeTo(ConfigPath(), mode)
}

func SaveDisplayModeTo(path string, mode DisplayMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown display mode %q", mode)
	}
	saveMu.Lock()
	defer saveMu.Unlock()

	cfg, err := LoadFrom(path)
	if err != nil {
		cfg = DefaultConfig()
	}
	cfg.UI.DisplayMode = mode
	return SaveTo(path, cfg)
}
