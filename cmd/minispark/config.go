package main

import (
	"fmt"

	"github.com/kbukum/minispark/config"
	"github.com/kbukum/minispark/engine"
	"github.com/kbukum/minispark/observability"
	"github.com/kbukum/minispark/storage"
	"github.com/kbukum/minispark/validation"
	"github.com/kbukum/minispark/version"
)

const serviceName = "minispark"

// cliConfig is the full configuration of the minispark binary.
type cliConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Engine               engine.Config        `yaml:"engine" mapstructure:"engine"`
	Storage              storage.Config       `yaml:"storage" mapstructure:"storage"`
	Telemetry            observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

func (c *cliConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Engine.ApplyDefaults()
	c.Storage.ApplyDefaults()
}

func (c *cliConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("config.engine: %w", err)
	}
	if err := validation.Validate(&c.Storage); err != nil {
		return fmt.Errorf("config.storage: %w", err)
	}
	if err := validation.Validate(&c.Telemetry); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

// defaults seeds viper so every key is bindable from the environment.
func defaults() map[string]any {
	d := engine.ConfigDefaults("engine")
	d["name"] = serviceName
	d["environment"] = "development"
	d["logging.level"] = "info"
	d["logging.format"] = "console"
	d["logging.output"] = "stderr"
	d["storage.base_path"] = ""
	d["storage.s3.enabled"] = false
	d["storage.s3.region"] = storage.DefaultRegion
	d["storage.s3.tls.ca_file"] = ""
	d["storage.s3.tls.skip_verify"] = false
	d["storage.redis.enabled"] = false
	d["storage.redis.addr"] = "localhost:6379"
	d["storage.redis.db"] = 0
	d["storage.max_concurrent_opens"] = 0
	d["storage.retry.max_attempts"] = 3
	d["storage.retry.initial_backoff"] = "50ms"
	d["storage.retry.max_backoff"] = "2s"
	d["storage.retry.backoff_factor"] = 2.0
	d["storage.retry.jitter"] = 0.1
	d["telemetry.enabled"] = false
	d["telemetry.endpoint"] = "localhost:4318"
	d["telemetry.insecure"] = true
	d["telemetry.sample_rate"] = 1.0
	return d
}

func loadConfig(configFile, envFile string) (*cliConfig, error) {
	opts := []config.LoaderOption{config.WithDefaults(defaults())}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	var cfg cliConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
