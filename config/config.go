// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Kafka   KafkaConfig
	Blob    BlobConfig
	OTel    OTelConfig
}

type ServerConfig struct {
	Addr            string
	ShutdownSeconds int
}

type LoggerConfig struct {
	Level string
}

type StorageConfig struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type BlobConfig struct {
	Driver      string
	FSRoot      string
	SegmentSize int
}

type OTelConfig struct {
	Endpoint string
	Insecure bool
}

// LoadEnv reads configuration from SHOPCORE_* environment variables, applying
// defaults for anything unset.
func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("SHOPCORE_HTTP_ADDR", ":8080"),
			ShutdownSeconds: getEnvInt("SHOPCORE_SHUTDOWN_SECONDS", 10),
		},
		Logger: LoggerConfig{
			Level: getEnv("SHOPCORE_LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:      getEnv("SHOPCORE_STORAGE_DRIVER", "sqlite"),
			SQLitePath:  getEnv("SHOPCORE_SQLITE_PATH", "./shopcore.db"),
			PostgresDSN: getEnv("SHOPCORE_POSTGRES_DSN", ""),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("SHOPCORE_KAFKA_BROKERS", nil),
			Topic:   getEnv("SHOPCORE_KAFKA_TOPIC", "shopcore.events"),
		},
		Blob: BlobConfig{
			Driver:      getEnv("SHOPCORE_BLOB_DRIVER", ""),
			FSRoot:      getEnv("SHOPCORE_BLOB_FS_ROOT", ""),
			SegmentSize: getEnvInt("SHOPCORE_BLOB_SEGMENT_SIZE", 256),
		},
		OTel: OTelConfig{
			Endpoint: getEnv("SHOPCORE_OTEL_ENDPOINT", ""),
			Insecure: getEnvBool("SHOPCORE_OTEL_INSECURE", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}
