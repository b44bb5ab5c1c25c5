// Package config loads the CLI configuration with Viper and godotenv.
//
// LoadConfig resolves config.yml and .env files from standard locations,
// applies registered defaults, and lets environment variables prefixed with
// the upper-cased service name override any key:
//
//	MINISPARK_ENGINE_WORKERS=8  ->  engine.workers
//	MINISPARK_LOGGING_LEVEL=debug -> logging.level
//
// Projects embed ServiceConfig in their own struct:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Engine engine.Config `yaml:"engine" mapstructure:"engine"`
//	}
package config
