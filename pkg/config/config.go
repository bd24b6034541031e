package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port           string
	Env            string
	PostgresUrl    string
	MongoURI       string
	RedisURL       string
	UploadDir      string
	MaxUploadBytes int64
	JWTSecret      string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		PostgresUrl:    getEnv("POSTGRES_URL", "http://localhost:5432"),
		MongoURI:       getEnv("MONGO_URI", ""),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		JWTSecret:      getEnv("JWT_SECRET", "supersecretjwtkey"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
