package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv     string
	ServerPort string

	DBDriver   string
	MongoURL   string
	MongoDB    string
	MySQLDSN   string
	SQLitePath string

	RedisAddr string
	RedisDB   int
	RedisPass string

	JWTSecret        string
	TokenTTL         time.Duration
	BcryptCost       int
	LoginMaxAttempts int
	LoginLockout     time.Duration

	MaxItemQuantity int
	FrontendURL     string
	CORSOrigins     []string
	CORSSuffixes    []string

	StripeSecretKey string
	Currency        string

	StorageDriver    string
	StorageLocalRoot string
	S3Bucket         string
	S3Region         string
	S3Key            string
	S3Secret         string
	S3Endpoint       string
	S3URL            string

	PublicURL   string
	LogMongoURL string
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is applied first when present;
// real environment variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:     getEnv("APP_ENV", "local"),
		ServerPort: getEnv("PORT", "4000"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "mongo")),
		MongoURL:   getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGO_DB", "food-del"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/food?charset=utf8mb4&parseTime=True&loc=Local"),
		SQLitePath: getEnv("SQLITE_PATH", "food.db"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		RedisPass: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:        getEnv("JWT_SECRET", "change-me"),
		TokenTTL:         getEnvDuration("TOKEN_TTL", 0),
		BcryptCost:       getEnvInt("BCRYPT_COST", 10),
		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockout:     getEnvDuration("LOGIN_LOCKOUT", 15*time.Minute),

		MaxItemQuantity: getEnvInt("MAX_ITEM_QUANTITY", 20),
		FrontendURL:     strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:4000",
		}),
		CORSSuffixes: getEnvList("CORS_ORIGIN_SUFFIXES", nil),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Currency:        strings.ToLower(getEnv("CURRENCY", "usd")),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		StorageLocalRoot: getEnv("STORAGE_LOCAL_ROOT", "uploads"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
		S3Key:            os.Getenv("S3_KEY"),
		S3Secret:         os.Getenv("S3_SECRET"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3URL:            os.Getenv("S3_URL"),

		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:4000"), "/"),
		LogMongoURL: os.Getenv("LOG_MONGO_URL"),
		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
