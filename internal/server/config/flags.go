package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/lip/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., "0.0.0.0:8080")
//	-g string   admin gRPC bind address, empty to disable
//	-b string   database driver: sqlite or postgres
//	-d string   database DSN (file name for sqlite)
//	-s string   JWT HMAC secret key
//	-t int      token validity, seconds
//	-p string   password hasher: bcrypt or sha256
//	-r int      reaper interval, seconds (0 disables)
//	-o bool     log to stdout (use -o=false to silence)
//	-e string   environment: local, dev or prod
//	-w int      request timeout, seconds
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-b", "-d", "-s", "-t", "-p", "-r", "-o", "-e", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "admin gRPC address")
	fs.StringVar(&config.DBDriver, "b", config.DBDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.Hasher, "p", config.Hasher, "password hasher")
	fs.BoolVar(&config.ToStdout, "o", config.ToStdout, "log to stdout")
	fs.StringVar(&config.Env, "e", config.Env, "environment")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Seconds()), "token validity (in seconds)")
	reaperInterval := fs.Int("r", int(config.ReaperInterval.Seconds()), "reaper interval (in seconds)")
	requestTimeout := fs.Int("w", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Durations given elsewhere may carry sub-second precision; only
	// overwrite the ones actually passed on the command line.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Second
		case "r":
			config.ReaperInterval = time.Duration(*reaperInterval) * time.Second
		case "w":
			config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		}
	})
}
