package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads .env files before configuration parsing so ${VAR}
// references in the YAML can resolve. Existing process environment always
// wins; godotenv never overrides variables that are already set.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Debug("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded env file", "path", path)
	}
}
