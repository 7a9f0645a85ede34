package config

import (
	"os"
	"strconv"
	"strings"
)

// Config структура конфигурации приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	MoaAPI   MoaAPIConfig
	TossPay  TossPayConfig
	Logging  LoggingConfig
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	// DSN подключения к PostgreSQL; пустая строка переключает
	// сервис на хранение чекаутов в памяти
	DSN string
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig конфигурация Kafka
type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

// MoaAPIConfig конфигурация клиента основного MoA backend
type MoaAPIConfig struct {
	BaseURL      string
	ServiceToken string
	TimeoutSec   int
}

// TossPayConfig конфигурация платежного провайдера
type TossPayConfig struct {
	BaseURL    string
	SecretKey  string
	SuccessURL string
	FailURL    string
}

// LoggingConfig конфигурация логгера
type LoggingConfig struct {
	Level string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
		},
		MoaAPI: MoaAPIConfig{
			BaseURL:      getEnv("MOA_API_BASE_URL", "http://localhost:9000"),
			ServiceToken: getEnv("MOA_API_TOKEN", ""),
			TimeoutSec:   getEnvAsInt("MOA_API_TIMEOUT", 10),
		},
		TossPay: TossPayConfig{
			BaseURL:    getEnv("TOSSPAY_BASE_URL", "https://api.tosspayments.com"),
			SecretKey:  getEnv("TOSSPAY_SECRET_KEY", ""),
			SuccessURL: getEnv("TOSSPAY_SUCCESS_URL", "http://localhost:3000/payments/success"),
			FailURL:    getEnv("TOSSPAY_FAIL_URL", "http://localhost:3000/payments/fail"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool возвращает значение переменной окружения как bool
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice возвращает значение переменной окружения как срез строк
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
