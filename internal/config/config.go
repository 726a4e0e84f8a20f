package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
}

var (
	configInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	ActivityTopic string
	Enabled       bool
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("SHOPLIST_HOST", "")
		viper.SetDefault("SHOPLIST_PORT", "8080")
		viper.SetDefault("SHOPLIST_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("SHOPLIST_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("SHOPLIST_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("SHOPLIST_JWT_SECRET", "secret")
		viper.SetDefault("SHOPLIST_JWT_ACCESS_TTL", "30m")
		viper.SetDefault("SHOPLIST_JWT_REFRESH_TTL", "168h")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_DB", "shoplist")
		viper.SetDefault("POSTGRES_SSLMODE", "disable")
		viper.SetDefault("REDIS_HOST", "localhost")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
		viper.SetDefault("KAFKA_ACTIVITY_TOPIC", "list-activity")
		viper.SetDefault("KAFKA_ENABLED", false)
		viper.AutomaticEnv()

		configInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("SHOPLIST_HOST"),
				Port:         viper.GetString("SHOPLIST_PORT"),
				ReadTimeout:  viper.GetDuration("SHOPLIST_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("SHOPLIST_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("SHOPLIST_IDLE_TIMEOUT"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
				SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			},
			Redis: RedisConfig{
				Host:         viper.GetString("REDIS_HOST"),
				Port:         viper.GetString("REDIS_PORT"),
				Password:     viper.GetString("REDIS_PASSWORD"),
				DB:           viper.GetInt("REDIS_DB"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			JWT: JWTConfig{
				Secret:     viper.GetString("SHOPLIST_JWT_SECRET"),
				AccessTTL:  viper.GetDuration("SHOPLIST_JWT_ACCESS_TTL"),
				RefreshTTL: viper.GetDuration("SHOPLIST_JWT_REFRESH_TTL"),
			},
			Kafka: KafkaConfig{
				Brokers:       viper.GetStringSlice("KAFKA_BROKERS"),
				ActivityTopic: viper.GetString("KAFKA_ACTIVITY_TOPIC"),
				Enabled:       viper.GetBool("KAFKA_ENABLED"),
			},
		}
	})

	return configInstance, nil
}
