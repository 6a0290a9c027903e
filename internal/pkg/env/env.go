// Package env layers an optional .env file over the process environment.
package env

import (
	"os"

	"github.com/joho/godotenv"
)

var fileEnv map[string]string

// GetEnv resolves key from the loaded .env file first, then the process
// environment, then the default.
func GetEnv(key, def string) string {
	if val, ok := fileEnv[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found walking up from the working
// directory. A missing file is fine: containerized deployments configure
// everything through real environment variables.
func SetupEnvFile() {
	candidates := []string{
		".env",
		"../../.env", // from cmd/licensed during development
	}
	for _, path := range candidates {
		if env, err := godotenv.Read(path); err == nil {
			fileEnv = env
			return
		}
	}
}
