package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	SecretKey string
	Port      string
	Debug     bool
}

// Load reads .env if present, then the environment, falling back to
// local-development defaults.
func Load() Config {
	godotenv.Load()
	return Config{
		DBPath:    getenv("VIBRA_DB_PATH", "data/vibra.db"),
		SecretKey: getenv("VIBRA_SECRET_KEY", "dev-secret"),
		Port:      getenv("PORT", "8080"),
		Debug:     os.Getenv("VIBRA_DEBUG") == "1" || os.Getenv("VIBRA_DEBUG") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
