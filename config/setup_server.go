package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type AppConfig struct {
	Env            string           `yaml:"env" env:"APP_ENV" env-default:"local"`
	LogLevel       string           `yaml:"log_level" env:"LOG_LEVEL"`
	Server         ServerConfig     `yaml:"server"`
	DatabaseConfig DatabaseConfig   `yaml:"databaseConfig"`
	RedisConfig    RedisConfig      `yaml:"redisConfig"`
	S3Config       S3Config         `yaml:"s3Config"`
	JWT            JWTConfig        `yaml:"jwt"`
	Revocation     RevocationConfig `yaml:"revocation"`
	Broker         BrokerConfig     `yaml:"broker"`
}

// LoadConfig reads the YAML file at path when it exists, then applies environment variables and
// defaults on top. A missing file is not an error: the whole config may come from the environment.
func LoadConfig(path string) (*AppConfig, error) {
	var cfg AppConfig

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.JWT.AccessTokenTTL >= c.JWT.RefreshTokenTTL {
		return fmt.Errorf("access_token_ttl (%s) must be shorter than refresh_token_ttl (%s)",
			c.JWT.AccessTokenTTL, c.JWT.RefreshTokenTTL)
	}
	if c.Revocation.SweepInterval < 0 || c.Revocation.Retention < 0 {
		return fmt.Errorf("revocation intervals must not be negative")
	}
	return nil
}

func SetupServer(cfg *ServerConfig) (*http.Server, *chi.Mux) {
	router := chi.NewRouter()
	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server, router
}

func SetupDatabase(cfg *DatabaseConfig) (*Database, error) {
	return NewDatabaseConnection("postgres", cfg)
}

func SetupRedis(cfg *RedisConfig) (*RedisClient, error) {
	return NewRedisClient(cfg)
}
