package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the API.
type Config struct {
	AppPort         string
	DBDriver        string
	DatabaseDSN     string
	DBDebug         bool
	FrontendURL     string
	RedisAddr       string
	CacheTTL        time.Duration
	CachePrefix     string
	RabbitMQURL     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":4000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=productos port=5432 sslmode=disable")
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("FRONTEND_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("CACHE_PREFIX", "productos:")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("SHUTDOWN_TIMEOUT", 30*time.Second)
}

// Load reads an optional .env file and then the environment.
// It reports whether a .env file was found so the caller can log it.
func Load() (Config, bool) {
	envFileLoaded := godotenv.Load() == nil

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	return LoadFrom(v), envFileLoaded
}

// LoadFrom builds a Config from an already prepared viper instance.
func LoadFrom(v *viper.Viper) Config {
	return Config{
		AppPort:         v.GetString("APP_PORT"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		DBDebug:         v.GetBool("DB_DEBUG"),
		FrontendURL:     v.GetString("FRONTEND_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		CachePrefix:     v.GetString("CACHE_PREFIX"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}
