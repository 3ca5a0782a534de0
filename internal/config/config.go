// Package config loads process configuration from the environment and
// modification configuration from YAML files.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"variantcore/internal/blob"
	"variantcore/internal/persistence"
)

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "VARIANTCORE_"

// Config is the environment-derived process configuration.
type Config struct {
	Storage StorageConfig `envPrefix:"STORAGE_"`
	Blob    BlobConfig    `envPrefix:"BLOB_"`

	Workers int   `env:"WORKERS" envDefault:"0"`
	Seed    int64 `env:"SEED" envDefault:"42"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	MetricsBackend   string `env:"METRICS_BACKEND" envDefault:"prometheus"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"variantcore"`
}

// StorageConfig selects the audit store.
type StorageConfig struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	Path   string `env:"PATH" envDefault:"variantcore.db"`
	DSN    string `env:"DSN"`
}

// BlobConfig selects the artifact store.
type BlobConfig struct {
	Driver string `env:"DRIVER" envDefault:"fs"`
	Root   string `env:"ROOT" envDefault:"./artifacts"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Prefix          string `env:"S3_PREFIX"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3SessionToken    string `env:"S3_SESSION_TOKEN"`
	S3PathStyle       bool   `env:"S3_PATH_STYLE"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("workers must be >= 0, got %d", cfg.Workers)
	}
	return cfg, nil
}

// PersistenceOptions maps the storage section onto the persistence facade.
func (c Config) PersistenceOptions() persistence.Options {
	return persistence.Options{
		Driver: persistence.Driver(c.Storage.Driver),
		Path:   c.Storage.Path,
		DSN:    c.Storage.DSN,
	}
}

// BlobOptions maps the blob section onto the blob facade.
func (c Config) BlobOptions() blob.Options {
	return blob.Options{
		Driver: blob.Driver(c.Blob.Driver),
		Root:   c.Blob.Root,
		S3: blob.S3Config{
			Region:          c.Blob.S3Region,
			Bucket:          c.Blob.S3Bucket,
			Prefix:          c.Blob.S3Prefix,
			Endpoint:        c.Blob.S3Endpoint,
			AccessKeyID:     c.Blob.S3AccessKeyID,
			SecretAccessKey: c.Blob.S3SecretAccessKey,
			SessionToken:    c.Blob.S3SessionToken,
			PathStyle:       c.Blob.S3PathStyle,
		},
	}
}
