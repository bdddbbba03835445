package config

import "time"

// Config holds runtime settings for lip-cli.
//
// Fields:
//   - ServerAddr: base URL (or host:port) of the lip server.
//   - RequestTimeout: deadline for a single API call.
//   - OnlineCheckInterval: how often the interactive prompt probes the server.
type Config struct {
	ServerAddr          string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// GlobalFlags are the command-line flags owned by this package. Everything
// else on the command line belongs to the chosen command.
var GlobalFlags = []string{"-s", "-t", "-i", "-c", "-config", "--config"}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
