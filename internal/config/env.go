package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "PICONFIG_"

// ApplyEnv overrides s from PICONFIG_* environment variables, e.g.
// PICONFIG_GATEWAY_URL or PICONFIG_CALL_TIMEOUT=10s. Unparseable values are
// logged and ignored.
func (s *Settings) ApplyEnv() {
	s.GatewayURL = getenv("GATEWAY_URL", s.GatewayURL)
	s.APIKey = getenv("API_KEY", s.APIKey)
	s.Addr = getenv("ADDR", s.Addr)
	s.Debug = parseBool("DEBUG", s.Debug)
	s.Mock = parseBool("MOCK", s.Mock)
	s.CallTimeout = parseDuration("CALL_TIMEOUT", s.CallTimeout)
	s.WatchInterval = parseDuration("WATCH_INTERVAL", s.WatchInterval)
	s.RateLimit = parseFloat("RATE_LIMIT", s.RateLimit)
	s.DesktopNotify = parseBool("DESKTOP_NOTIFY", s.DesktopNotify)
	s.Zeroconf = parseBool("ZEROCONF", s.Zeroconf)
}

func lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(value)
	return trimmed, trimmed != ""
}

func getenv(key string, fallback string) string {
	if value, ok := lookup(key); ok {
		return value
	}
	return fallback
}

func parseBool(key string, fallback bool) bool {
	raw, ok := lookup(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("config: ignoring invalid bool", "key", EnvPrefix+key, "value", raw)
		return fallback
	}
	return value
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := lookup(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		slog.Warn("config: ignoring invalid duration", "key", EnvPrefix+key, "value", raw)
		return fallback
	}
	return value
}

func parseFloat(key string, fallback float64) float64 {
	raw, ok := lookup(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		slog.Warn("config: ignoring invalid number", "key", EnvPrefix+key, "value", raw)
		return fallback
	}
	return value
}
