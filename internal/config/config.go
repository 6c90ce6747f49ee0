// internal/config/config.go
package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Catalog source kinds.
const (
	SourceBackend  = "backend"
	SourceWorkbook = "workbook"
	SourceDrive    = "drive"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Source   SourceConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Costing  CostingConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	CatalogdPort   string
}

type BackendConfig struct {
	URL                string
	TimeoutSeconds     int
	RetryBackoffMillis int
}

type SourceConfig struct {
	Kind                   string
	WorkbookPath           string
	RefreshIntervalSeconds int
	Drive                  DriveConfig
	S3                     S3Config
}

type DriveConfig struct {
	FileID          string
	CredentialsJSON string
	CredentialsFile string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Key       string
	UseSSL    bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	CatalogTTLSeconds int
}

type CostingConfig struct {
	RoundingStep     float64
	RetailMultiplier float64
}

type LogConfig struct {
	Level string
	JSON  bool
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the environment once and returns the shared config.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("CATALOGD_PORT", "8081")

	v.SetDefault("BACKEND_URL", "http://localhost:8081/exec")
	v.SetDefault("BACKEND_TIMEOUT_SECONDS", 10)
	v.SetDefault("BACKEND_RETRY_BACKOFF_MS", 500)

	v.SetDefault("CATALOG_SOURCE", SourceBackend)
	v.SetDefault("CATALOG_WORKBOOK_PATH", "./data/catalog.xlsx")
	v.SetDefault("CATALOG_REFRESH_INTERVAL_SECONDS", 0)
	v.SetDefault("DRIVE_FILE_ID", "")
	v.SetDefault("GOOGLE_CREDENTIALS_JSON", "")
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_OBJECT_KEY", "catalog.xlsx")
	v.SetDefault("S3_USE_SSL", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "quotemanager")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_CATALOG_TTL_SECONDS", 300)

	v.SetDefault("COSTING_ROUNDING_STEP", 0.05)
	v.SetDefault("COSTING_RETAIL_MULTIPLIER", 2.0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			CatalogdPort:   v.GetString("CATALOGD_PORT"),
		},
		Backend: BackendConfig{
			URL:                v.GetString("BACKEND_URL"),
			TimeoutSeconds:     v.GetInt("BACKEND_TIMEOUT_SECONDS"),
			RetryBackoffMillis: v.GetInt("BACKEND_RETRY_BACKOFF_MS"),
		},
		Source: SourceConfig{
			Kind:                   strings.ToLower(strings.TrimSpace(v.GetString("CATALOG_SOURCE"))),
			WorkbookPath:           v.GetString("CATALOG_WORKBOOK_PATH"),
			RefreshIntervalSeconds: v.GetInt("CATALOG_REFRESH_INTERVAL_SECONDS"),
			Drive: DriveConfig{
				FileID:          v.GetString("DRIVE_FILE_ID"),
				CredentialsJSON: v.GetString("GOOGLE_CREDENTIALS_JSON"),
				CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
			},
			S3: S3Config{
				Endpoint:  v.GetString("S3_ENDPOINT"),
				AccessKey: v.GetString("S3_ACCESS_KEY"),
				SecretKey: v.GetString("S3_SECRET_KEY"),
				Bucket:    v.GetString("S3_BUCKET"),
				Region:    v.GetString("S3_REGION"),
				Key:       v.GetString("S3_OBJECT_KEY"),
				UseSSL:    v.GetBool("S3_USE_SSL"),
			},
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:           v.GetBool("CACHE_ENABLED"),
			RedisURL:          v.GetString("REDIS_URL"),
			RedisHost:         v.GetString("REDIS_HOST"),
			RedisPort:         v.GetString("REDIS_PORT"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			CatalogTTLSeconds: v.GetInt("CACHE_CATALOG_TTL_SECONDS"),
		},
		Costing: CostingConfig{
			RoundingStep:     v.GetFloat64("COSTING_ROUNDING_STEP"),
			RetailMultiplier: v.GetFloat64("COSTING_RETAIL_MULTIPLIER"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			JSON:  v.GetBool("LOG_JSON"),
		},
	}
}
