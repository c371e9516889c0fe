// Package config loads the panel's settings: built-in defaults, then an
// optional YAML file, then PICONFIG_* environment variables. Command-line
// flags are applied on top by the commands themselves.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the settings file looked up in the config directory.
	FileName = "settings.yaml"

	defaultGatewayURL    = "http://127.0.0.1:8099"
	defaultAddr          = ":8080"
	defaultRateLimit     = 20
	defaultWatchInterval = 15 * time.Second
)

// Settings holds everything the daemon and the CLI need to reach the device
// backend and serve the panel.
type Settings struct {
	// GatewayURL is the base URL of the device backend (without /api/v1).
	GatewayURL string `yaml:"gateway_url"`
	// APIKey, when set, is sent as a bearer token to the backend.
	APIKey string `yaml:"api_key,omitempty"`
	// Addr is the panel's HTTP listen address.
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`
	// Mock serves an in-memory backend instead of calling GatewayURL.
	Mock bool `yaml:"mock"`
	// CallTimeout bounds each backend call. Zero means no timeout.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// RateLimit caps backend requests per second. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	// WatchInterval is how often the watchdog probes the backend. Zero
	// disables the watchdog.
	WatchInterval time.Duration `yaml:"watch_interval"`
	// DesktopNotify mirrors notifications to the desktop over D-Bus.
	DesktopNotify bool `yaml:"desktop_notify"`
	// Zeroconf advertises the panel over mDNS.
	Zeroconf bool `yaml:"zeroconf"`
	// ConfigDir holds users.json and metadata.json. Not read from the file.
	ConfigDir string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		GatewayURL:    defaultGatewayURL,
		Addr:          defaultAddr,
		RateLimit:     defaultRateLimit,
		WatchInterval: defaultWatchInterval,
		Zeroconf:      true,
	}
}

// DefaultDir returns ~/.config/piconfig.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "piconfig"), nil
}

// Load reads settings.yaml from dir over the defaults. A missing file is not
// an error. Keys absent from the file keep their default values.
func Load(dir string) (Settings, error) {
	s := Default()
	s.ConfigDir = dir

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return s, nil
}

// Save writes s to settings.yaml in s.ConfigDir, atomically.
func (s Settings) Save() error {
	if s.ConfigDir == "" {
		return errors.New("config: no config directory")
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(s.ConfigDir, 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	path := s.Path()
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Path returns the settings file path.
func (s Settings) Path() string {
	return filepath.Join(s.ConfigDir, FileName)
}

// Validate reports the first setting that cannot be used.
func (s Settings) Validate() error {
	if !s.Mock {
		u, err := url.Parse(s.GatewayURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: gateway_url %q is not an http(s) URL", s.GatewayURL)
		}
	}
	if s.Addr == "" {
		return errors.New("config: addr is empty")
	}
	if s.CallTimeout < 0 {
		return fmt.Errorf("config: call_timeout %s is negative", s.CallTimeout)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("config: rate_limit %g is negative", s.RateLimit)
	}
	if s.WatchInterval < 0 {
		return fmt.Errorf("config: watch_interval %s is negative", s.WatchInterval)
	}
	return nil
}
