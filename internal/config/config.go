package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env         string      `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer  HTTPServer  `yaml:"http_server"`
	Storage     Storage     `yaml:"storage"`
	DB          DB          `yaml:"db"`
	Cache       Cache       `yaml:"cache"`
	Quota       Quota       `yaml:"quota"`
	Upload      Upload      `yaml:"upload"`
	Fingerprint Fingerprint `yaml:"fingerprint"`
	Tracing     Tracing     `yaml:"tracing"`
}

type HTTPServer struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout        time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"HTTP_MAX_UPLOAD_BYTES" env-default:"33554432"`
}

type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type DB struct {
	Addr     string `yaml:"addr" env:"DB_ADDR" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DB       string `yaml:"db" env:"DB_NAME" env-default:"kbdedup"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSLMODE" env-default:"disable"`

	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"5m"`
}

type Cache struct {
	Enabled      bool          `yaml:"enabled" env:"CACHE_ENABLED" env-default:"true"`
	Addr         string        `yaml:"addr" env:"CACHE_ADDR" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"CACHE_PASSWORD"`
	DB           int           `yaml:"db" env:"CACHE_DB" env-default:"0"`
	DocumentsTTL time.Duration `yaml:"documents_ttl" env:"CACHE_DOCUMENTS_TTL" env-default:"5m"`
}

type Quota struct {
	MaxPrivateFilesPerUser int `yaml:"max_private_files_per_user" env:"MAX_PRIVATE_FILES_PER_USER" env-default:"3"`
}

type Upload struct {
	LockTimeout time.Duration `yaml:"lock_timeout" env:"UPLOAD_LOCK_TIMEOUT" env-default:"5s"`
	MaxAttempts int           `yaml:"max_attempts" env:"UPLOAD_MAX_ATTEMPTS" env-default:"3"`
	RetryDelay  time.Duration `yaml:"retry_delay" env:"UPLOAD_RETRY_DELAY" env-default:"20ms"`
}

type Fingerprint struct {
	Algorithm string `yaml:"algorithm" env:"FINGERPRINT_ALGORITHM" env-default:"blake3"`
}

type Tracing struct {
	Enabled     bool   `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"kbdedup"`
	// Protocol is grpc or http/protobuf.
	Protocol    string  `yaml:"protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL" env-default:"grpc"`
	SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_TRACES_SAMPLER_ARG" env-default:"1.0"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Quota.MaxPrivateFilesPerUser < 0 {
		return errors.New("max_private_files_per_user must not be negative")
	}

	if c.Upload.MaxAttempts < 1 {
		return errors.New("upload max_attempts must be at least 1")
	}

	return nil
}
