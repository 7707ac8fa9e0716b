package config

import (
	"strings"
	"time"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// BasePath mounts every route under a prefix, e.g. "/ShouldIBuyIt".
	BasePath        string `yaml:"base_path"`
	AllowedOrigin   string `yaml:"allowed_origin"`
	MaxConnections  int    `yaml:"max_connections"` // 0 = unlimited
	ReadTimeout     string `yaml:"read_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// NormalizedBasePath returns BasePath with a leading slash and no trailing
// slash, or "" for the root.
func (c ServerConfig) NormalizedBasePath() string {
	p := strings.Trim(strings.TrimSpace(c.BasePath), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// GetReadTimeout returns the header read timeout.
func (c ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeout, 15*time.Second)
}

// GetShutdownTimeout returns how long in-flight requests get on shutdown.
func (c ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(c.ShutdownTimeout, 10*time.Second)
}
