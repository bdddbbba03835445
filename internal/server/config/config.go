// Package config handles configuration for the lip server: defaults, an
// optional JSON file, LIP_* environment variables and command-line flags,
// applied in that order.
package config

import (
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/logging"
)

// Supported values for Config.DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported values for Config.Hasher.
const (
	HasherBcrypt = "bcrypt"
	HasherSHA256 = "sha256"
)

// Config holds runtime settings for the lip server.
//
// Fields:
//   - HTTPAddr: bind address of the public JSON API.
//   - GRPCAddr: bind address of the admin gRPC health server; "" disables it.
//   - DBDriver / DatabaseDSN: record store backend and its DSN (file name for sqlite).
//   - SecretKey: HMAC secret for signing JWTs (HS256). Random per process when unset.
//   - TokenValidityDuration: lifetime of read and write tokens.
//   - Hasher: password hashing scheme for newly created addresses.
//   - ReaperInterval: period of the background expiry sweep; 0 disables it.
//   - ToStdout: when false, log output is discarded.
//   - Env: logging flavour, one of local, dev, prod.
//   - RequestTimeout: per-request deadline for HTTP handlers.
type Config struct {
	HTTPAddr              string
	GRPCAddr              string
	DBDriver              string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	Hasher                string
	ReaperInterval        time.Duration
	ToStdout              bool
	Env                   string
	RequestTimeout        time.Duration
}

// LoadDefaults populates Config with the values a bare `lip` invocation
// runs with. The JWT secret is regenerated on every start, so tokens do not
// survive a restart unless a secret is configured.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "0.0.0.0:8080"
	c.GRPCAddr = ""
	c.DBDriver = DriverSQLite
	c.DatabaseDSN = "lip.sqlite"
	c.SecretKey = randomSecret()
	c.TokenValidityDuration = 6 * time.Minute
	c.Hasher = HasherBcrypt
	c.ReaperInterval = 0
	c.ToStdout = true
	c.Env = logging.EnvLocal
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func randomSecret() string {
	s, err := common.MakeRandHexString(20)
	if err != nil {
		panic(err)
	}
	return s
}
