// Package identity provides the panel's version and the host it runs on.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultVersion is the fallback version string when metadata.json is not found.
const DefaultVersion = "0.1.0-go"

// ModelPath is where the device tree exposes the board model on a Pi.
const ModelPath = "/proc/device-tree/model"

// Info holds identity information reported by /api/info and mDNS.
type Info struct {
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
	Model    string `json:"model,omitempty"`
}

// Get collects identity information, reading the version from dir.
func Get(dir string) Info {
	return Info{
		Hostname: GetHostname(),
		Version:  GetVersionFromDir(dir),
		Model:    GetModelFromFile(ModelPath),
	}
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "piconfig"
	}
	return h
}

// GetVersionFromDir reads the version from metadata.json in dir.
// Falls back to DefaultVersion if the file is missing or unreadable.
func GetVersionFromDir(dir string) string {
	if dir == "" {
		return DefaultVersion
	}
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return DefaultVersion
	}

	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.Version == "" {
		return DefaultVersion
	}
	return meta.Version
}

// GetModelFromFile reads a board model string such as
// "Raspberry Pi 4 Model B Rev 1.4". Returns "" when unavailable, e.g. when
// the panel runs on a workstation against a remote device.
func GetModelFromFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	// The device tree string is NUL terminated.
	return strings.TrimSpace(strings.TrimRight(string(data), "\x00"))
}
