package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

type Config struct {
	APIPort        string
	RequestTimeout time.Duration
	JWTKey         []byte
	JWTExp         time.Duration

	StorageBackend string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string
	DBConnStr      string

	// RedisAddr empty disables the distributed submit lock.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SubmitLockTTL time.Duration

	JudgeBaseURL         string
	JudgeAuthToken       string
	JudgePollInterval    time.Duration
	JudgeMaxPollAttempts int
	JudgeHTTPTimeout     time.Duration
	JudgeMaxBatchSize    int

	ValidationConcurrency int
	LanguagesFile         string

	LogLevel           string
	LogFormat          string
	CORSAllowedOrigins []string
}

var AppConfig *Config

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:        getEnv("API_PORT", "8080"),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 90)) * time.Second,
		JWTKey:         []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:         time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendPostgres)),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "user"),
		DBPassword:     getEnv("DB_PASSWORD", "password"),
		DBName:         getEnv("DB_NAME", "leetcode_db"),
		DBSslMode:      getEnv("DB_SSLMODE", "disable"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		SubmitLockTTL:  time.Duration(getEnvAsInt("SUBMIT_LOCK_TTL_SECONDS", 120)) * time.Second,

		JudgeBaseURL:         getEnv("JUDGE_BASE_URL", "http://localhost:2358"),
		JudgeAuthToken:       getEnv("JUDGE_AUTH_TOKEN", ""),
		JudgePollInterval:    time.Duration(getEnvAsInt("JUDGE_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		JudgeMaxPollAttempts: getEnvAsInt("JUDGE_MAX_POLL_ATTEMPTS", 60),
		JudgeHTTPTimeout:     time.Duration(getEnvAsInt("JUDGE_HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		JudgeMaxBatchSize:    getEnvAsInt("JUDGE_MAX_BATCH_SIZE", 20),

		ValidationConcurrency: getEnvAsInt("VALIDATION_CONCURRENCY", 2),
		LanguagesFile:         getEnv("LANGUAGES_FILE", ""),

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if AppConfig.StorageBackend == "" {
		AppConfig.StorageBackend = StorageBackendPostgres
	}
	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
	return AppConfig
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
