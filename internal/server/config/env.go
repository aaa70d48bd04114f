package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

const defaultEnvFile = ".env"

// parseEnv overlays variables from the environment. A dotenv file named with
// -env must exist; the default ".env" is optional. Variables already set in
// the process win over the file.
func parseEnv(cfg *Config, args []string) error {
	path := flagx.EnvFile(args)
	if path == "" {
		if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	} else if err := godotenv.Load(path); err != nil {
		return err
	}

	return env.Parse(cfg)
}
