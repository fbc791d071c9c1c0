package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Backend   BackendConfig
	Chat      ChatConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Redis     RedisConfig
	DB        DBConfig
	Log       LogConfig
	DevServer DevServerConfig `mapstructure:"devserver"`
}

type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ChatConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type HTTPConfig struct {
	Timeout time.Duration
}

// StorageConfig selects where the session token and user record are kept.
// Driver is one of "badger", "redis" or "postgres".
type StorageConfig struct {
	Driver string
	Path   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DBConfig struct {
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Host     string
	Port     string
}

type LogConfig struct {
	Level string
}

type DevServerConfig struct {
	Addr      string
	JWTSecret string `mapstructure:"jwt_secret"`
	Chat      bool
}

// Load reads config.yaml from path (a file or a directory), then an optional
// .env file, then PASSENGER_* environment variables. A missing config file is
// not an error: defaults apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("passenger")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if path == "" {
			path = "."
		}
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	cfg.Chat.BaseURL = strings.TrimRight(cfg.Chat.BaseURL, "/")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("chat.base_url", "http://localhost:5005")
	v.SetDefault("http.timeout", 15*time.Second)
	v.SetDefault("storage.driver", "badger")
	v.SetDefault("storage.path", defaultStorePath())
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.dbname", "passenger")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("log.level", "info")
	v.SetDefault("devserver.addr", ":5000")
	v.SetDefault("devserver.jwt_secret", "dev-secret")
	v.SetDefault("devserver.chat", true)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".passenger", "store")
	}
	return filepath.Join(home, ".passenger", "store")
}

// DSN renders the postgres connection string used by the storage driver and
// the migration runner.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
