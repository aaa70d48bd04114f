package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags applies the short command-line flags, the last layer.
//
//	-a string     HTTP bind address (":8080")
//	-g string     gRPC bind address (":50051")
//	-s string     storage backend: postgres or memory
//	-d string     PostgreSQL DSN
//	-r string     Redis address for verification codes
//	-k string     API key guarding operational endpoints
//	-t duration   access token lifetime ("15m")
//	-rt duration  refresh token lifetime ("168h")
//	-l string     log level
//
// Other flags in args are dropped by flagx.FilterArgs before parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-s", "-d", "-r", "-k", "-t", "-rt", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "HTTP address and port")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "gRPC address and port")
	fs.StringVar(&cfg.Storage, "s", cfg.Storage, "storage backend")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")
	fs.DurationVar(&cfg.AccessTokenTTL, "t", cfg.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&cfg.RefreshTokenTTL, "rt", cfg.RefreshTokenTTL, "refresh token lifetime")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
