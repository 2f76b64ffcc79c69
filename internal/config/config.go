package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration read from the environment.
type Config struct {
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	HTTPPort      string
	JWTSecret     string
	LogLevel      string
}

// Load reads configuration from the environment, loading a local .env file
// first if one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		MongoURI:      getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGO_DATABASE", "counselhub"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		HTTPPort:      getEnvOrDefault("PORT", "8080"),
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
