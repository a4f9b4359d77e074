package dynamo

import (
	"fmt"
	"os"
)

// Environment variables consumed by FromEnv.
const (
	EnvTableName  = "MY_TASKS_TABLE"
	EnvEmailIndex = "MY_TASKS_EMAIL_INDEX"
)

// Config names the table and the email lookup index. Both are required; a
// missing value is a startup failure, not something to detect per request.
type Config struct {
	// TableName is the single table holding every entity.
	TableName string

	// EmailIndex is the global secondary index keyed by the email attribute.
	EmailIndex string
}

// ConfigError reports a required environment variable that is not set.
type ConfigError struct {
	Variable string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("taskstore: environment variable %s is not set", e.Variable)
}

// FromEnv reads the table configuration from the environment.
func FromEnv() (Config, error) {
	cfg := Config{
		TableName:  os.Getenv(EnvTableName),
		EmailIndex: os.Getenv(EnvEmailIndex),
	}
	if cfg.TableName == "" {
		return Config{}, &ConfigError{Variable: EnvTableName}
	}
	if cfg.EmailIndex == "" {
		return Config{}, &ConfigError{Variable: EnvEmailIndex}
	}
	return cfg, nil
}
