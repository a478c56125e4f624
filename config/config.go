package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr  string      `yaml:"http_addr"`
	DBURL     string      `yaml:"db_url"`
	Redis     RedisConfig `yaml:"redis"`
	PasetoKey string      `yaml:"paseto_secret"`
	LogLevel  string      `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"`
	Debug     bool        `yaml:"debug"`
	CORS      CorsConfig  `yaml:"cors"`
	Server    ServerTimes `yaml:"server"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	MaxRetries   int           `yaml:"max_retries"`
}

type CorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ServerTimes struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default mirrors the values the service has always been deployed with.
func Default() Config {
	return Config{
		HTTPAddr:  ":8000",
		LogLevel:  "info",
		LogFormat: "text",
		Redis: RedisConfig{
			PoolSize:     10,
			DialTimeout:  30 * time.Second,
			MinIdleConns: 5,
			ReadTimeout:  30 * time.Second,
			MaxRetries:   3,
		},
		CORS: CorsConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8000"},
		},
		Server: ServerTimes{
			ReadTimeout:     100 * time.Second,
			WriteTimeout:    100 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in that order of precedence (later wins).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg, os.Getenv)
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString("HTTP_ADDR", &cfg.HTTPAddr)
	setString("DB_URL", &cfg.DBURL)
	setString("REDIS_URL", &cfg.Redis.URL)
	setString("PASETO_SECRET", &cfg.PasetoKey)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FORMAT", &cfg.LogFormat)

	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DBURL == "" {
		errs = append(errs, errors.New("database URL (DB_URL) is not set"))
	}
	if c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is not set"))
	}
	if c.PasetoKey == "" {
		errs = append(errs, errors.New("PASETO_SECRET is not set"))
	} else if len(c.PasetoKey) < 32 {
		errs = append(errs, errors.New("PASETO_SECRET must be at least 32 bytes"))
	}
	return errors.Join(errs...)
}
