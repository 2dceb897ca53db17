package bootstrap

import (
	"os"
	"strconv"
)

type Config struct {
	ServerAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseDSN string

	UploadMaxBytes      int64
	UploadRatePerSecond float64
	UploadBurst         int
	StubVolumeRendering bool
	ArchiveHistoryLimit int

	LogLevel string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8116"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		UploadMaxBytes:      int64(getEnvInt("UPLOAD_MAX_MB", 512)) << 20,
		UploadRatePerSecond: 1,
		UploadBurst:         getEnvInt("UPLOAD_BURST", 3),
		StubVolumeRendering: true,
		ArchiveHistoryLimit: getEnvInt("ARCHIVE_HISTORY_LIMIT", 50),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
