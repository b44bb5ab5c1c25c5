package engine

import (
	"runtime"

	"github.com/kbukum/minispark/queue"
	"github.com/kbukum/minispark/validation"
)

// DefaultMetricsLog is the metrics log path used when none is configured.
const DefaultMetricsLog = "metrics.log"

// Config configures an Engine.
type Config struct {
	// Workers is the size of the worker pool. 0 means runtime.NumCPU().
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
	// QueueCapacity bounds the task queue.
	QueueCapacity int `yaml:"queue_capacity" mapstructure:"queue_capacity" validate:"gte=0"`
	// MetricQueueCapacity bounds the metrics collector queue.
	MetricQueueCapacity int `yaml:"metric_queue_capacity" mapstructure:"metric_queue_capacity" validate:"gte=0"`
	// MetricsLog is the file the collector writes one line per task to.
	MetricsLog string `yaml:"metrics_log" mapstructure:"metrics_log" validate:"required"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = queue.DefaultCapacity
	}
	if c.MetricQueueCapacity == 0 {
		c.MetricQueueCapacity = queue.DefaultCapacity
	}
	if c.MetricsLog == "" {
		c.MetricsLog = DefaultMetricsLog
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// ConfigDefaults returns the defaults keyed for config.WithDefaults under
// the given section name.
func ConfigDefaults(section string) map[string]any {
	return map[string]any{
		section + ".workers":               0,
		section + ".queue_capacity":        queue.DefaultCapacity,
		section + ".metric_queue_capacity": queue.DefaultCapacity,
		section + ".metrics_log":           DefaultMetricsLog,
	}
}
