package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from environment variables. A .env
// file in the working directory is loaded first if present; real environment
// variables take precedence over it. Variables that are not set leave the
// corresponding fields untouched.
func parseEnv(config *Config) {
	// best effort; absence of .env is the normal case outside dev
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
