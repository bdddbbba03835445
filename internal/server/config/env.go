package config

import (
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig lists the LIP_* variables. cleanenv leaves a field alone when
// its variable is unset, so the struct is pre-filled from the current
// Config and copied back afterwards.
type envConfig struct {
	Hostname       string        `env:"LIP_HOSTNAME"`
	Port           string        `env:"LIP_PORT"`
	GRPCAddr       string        `env:"LIP_GRPC_ADDR"`
	DBDriver       string        `env:"LIP_DB_DRIVER"`
	DBName         string        `env:"LIP_DB_NAME"`
	JWTSecret      string        `env:"LIP_JWT_SECRET"`
	TokenValidity  time.Duration `env:"LIP_TOKEN_VALIDITY"`
	Hasher         string        `env:"LIP_HASHER"`
	ReaperInterval time.Duration `env:"LIP_REAPER_INTERVAL"`
	ToStdout       bool          `env:"LIP_TO_STDOUT"`
	Env            string        `env:"LIP_ENV"`
	RequestTimeout time.Duration `env:"LIP_REQUEST_TIMEOUT"`
}

func parseEnv(config *Config) {
	if err := applyEnv(config); err != nil {
		panic(err)
	}
}

func applyEnv(config *Config) error {
	host, port, err := net.SplitHostPort(config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("http address %q: %w", config.HTTPAddr, err)
	}

	e := envConfig{
		Hostname:       host,
		Port:           port,
		GRPCAddr:       config.GRPCAddr,
		DBDriver:       config.DBDriver,
		DBName:         config.DatabaseDSN,
		JWTSecret:      config.SecretKey,
		TokenValidity:  config.TokenValidityDuration,
		Hasher:         config.Hasher,
		ReaperInterval: config.ReaperInterval,
		ToStdout:       config.ToStdout,
		Env:            config.Env,
		RequestTimeout: config.RequestTimeout,
	}

	if err := cleanenv.ReadEnv(&e); err != nil {
		return fmt.Errorf("failed to read env: %w", err)
	}

	config.HTTPAddr = net.JoinHostPort(e.Hostname, e.Port)
	config.GRPCAddr = e.GRPCAddr
	config.DBDriver = e.DBDriver
	config.DatabaseDSN = e.DBName
	config.SecretKey = e.JWTSecret
	config.TokenValidityDuration = e.TokenValidity
	config.Hasher = e.Hasher
	config.ReaperInterval = e.ReaperInterval
	config.ToStdout = e.ToStdout
	config.Env = e.Env
	config.RequestTimeout = e.RequestTimeout
	return nil
}
