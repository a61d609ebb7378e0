package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	LogDevelopment bool

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirecrawlAPIURL        string
	FirecrawlAPIKey        string
	FirecrawlTimeoutSecs   int
	CleanupThresholdDays   int
	CleanupIntervalHours   int
	CleanupLockKey         string
	CleanupLockTTLSeconds  int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:               getEnv("API_PORT", "8080"),
		JWTKey:                []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		LogDevelopment:        getEnv("LOG_DEVELOPMENT", "false") == "true",
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            getEnv("DB_PASSWORD", "password"),
		DBName:                getEnv("DB_NAME", "fcmanager"),
		DBSslMode:             getEnv("DB_SSLMODE", "disable"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		FirecrawlAPIURL:       getEnv("FIRECRAWL_API_URL", "http://127.0.0.1:3002"),
		FirecrawlAPIKey:       getEnv("FIRECRAWL_API_KEY", ""),
		FirecrawlTimeoutSecs:  getEnvAsInt("FIRECRAWL_TIMEOUT_SECONDS", 30),
		CleanupThresholdDays:  getEnvAsInt("CLEANUP_THRESHOLD_DAYS", 7),
		CleanupIntervalHours:  getEnvAsInt("CLEANUP_INTERVAL_HOURS", 24),
		CleanupLockKey:        getEnv("CLEANUP_LOCK_KEY", "account_cleanup_lock"),
		CleanupLockTTLSeconds: getEnvAsInt("CLEANUP_LOCK_TTL_SECONDS", 300),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
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
