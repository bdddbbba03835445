package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lip/internal/flagx"
	"github.com/dmitrijs2005/lip/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// both "6m" style strings and integer nanoseconds. Absent keys leave the
// corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr              *string         `json:"http_addr"`
	GRPCAddr              *string         `json:"grpc_addr"`
	DBDriver              *string         `json:"db_driver"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	Hasher                *string         `json:"hasher"`
	ReaperInterval        *timex.Duration `json:"reaper_interval"`
	ToStdout              *bool           `json:"to_stdout"`
	Env                   *string         `json:"env"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
}

// parseJson loads the file named by -c/-config into config. Without either
// flag nothing happens. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DBDriver, c.DBDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Hasher, c.Hasher)
	setString(&config.Env, c.Env)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ReaperInterval != nil {
		config.ReaperInterval = c.ReaperInterval.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.ToStdout != nil {
		config.ToStdout = *c.ToStdout
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
