package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Broker    BrokerConfig    `mapstructure:"broker"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	URL             string        `mapstructure:"url"`    // postgres connection string
	Path            string        `mapstructure:"path"`   // sqlite file path
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver.
// Parameters: none.
// Returns:
//   - string: postgres URL or sqlite file path depending on driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // minio, s3, r2, s3compatible
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type BrokerConfig struct {
	Addr     string       `mapstructure:"addr"`
	Password string       `mapstructure:"password"`
	DB       int          `mapstructure:"db"`
	Topics   TopicsConfig `mapstructure:"topics"`
}

type TopicsConfig struct {
	Explanation   string `mapstructure:"explanation"`
	ImageAnalysis string `mapstructure:"image_analysis"`
	Embedding     string `mapstructure:"embedding"`
}

type IngestConfig struct {
	MaxChunkTokens int `mapstructure:"max_chunk_tokens"`
}

type AnalyticsConfig struct {
	APIKey string `mapstructure:"api_key"`
	Host   string `mapstructure:"host"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/lectern.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.type", "minio")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "lectures")
	v.SetDefault("broker.addr", "localhost:6379")
	v.SetDefault("broker.db", 0)
	v.SetDefault("broker.topics.explanation", "explanation-jobs")
	v.SetDefault("broker.topics.image_analysis", "image-analysis-jobs")
	v.SetDefault("broker.topics.embedding", "embedding-jobs")
	v.SetDefault("ingest.max_chunk_tokens", 512)
	v.SetDefault("analytics.host", "https://us.i.posthog.com")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	v.BindEnv("broker.addr", "REDIS_ADDR")
	v.BindEnv("broker.password", "REDIS_PASSWORD")
	v.BindEnv("analytics.api_key", "POSTHOG_API_KEY")
	v.BindEnv("analytics.host", "POSTHOG_HOST")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
