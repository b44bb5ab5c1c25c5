package storage

import (
	"time"

	"github.com/kbukum/minispark/resilience"
	"github.com/kbukum/minispark/security"
)

// Backend schemes.
const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeRedis = "redis"
)

// DefaultRegion is used for S3 when none is configured.
const DefaultRegion = "us-east-1"

// Config selects and configures the storage backends.
type Config struct {
	// BasePath roots relative file paths. Empty means the working directory.
	BasePath string      `yaml:"base_path" mapstructure:"base_path"`
	S3       S3Config    `yaml:"s3" mapstructure:"s3"`
	Redis    RedisConfig `yaml:"redis" mapstructure:"redis"`

	// Retry governs re-opening an object after a transient backend error.
	Retry resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`

	// MaxConcurrentOpens caps in-flight opens per backend. 0 is unlimited.
	MaxConcurrentOpens int `yaml:"max_concurrent_opens" mapstructure:"max_concurrent_opens" validate:"gte=0"`
}

// S3Config configures the S3 backend. Object paths are "bucket/key".
type S3Config struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Region  string `yaml:"region" mapstructure:"region" validate:"required_if=Enabled true"`

	// Endpoint points at an S3-compatible service such as MinIO.
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key" validate:"required_with=AccessKey"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`

	// TLS trusts a private CA or presents a client certificate to Endpoint.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// RedisConfig configures the Redis backend. An object path is a key holding
// a list (one element per line) or a string.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db" validate:"gte=0"`

	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	// BatchSize is the number of list elements fetched per round trip.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=0"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.S3.Region == "" {
		c.S3.Region = DefaultRegion
	}
	if c.Redis.DialTimeout <= 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout <= 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.BatchSize <= 0 {
		c.Redis.BatchSize = 512
	}
	c.Retry.ApplyDefaults()
}

// Enabled reports whether the backend for scheme should be started.
func (c *Config) Enabled(scheme string) bool {
	switch scheme {
	case SchemeS3:
		return c.S3.Enabled
	case SchemeRedis:
		return c.Redis.Enabled
	default:
		return true
	}
}
