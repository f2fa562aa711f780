package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/agentstation/catalogsync/pkg/errors"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(v *viper.Viper, key string) string {
	osValue := os.Getenv(key)
	viperValue := v.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// Secret resolves the credential named by the environment variable env.
// Secrets are never stored in the config file itself.
func Secret(v *viper.Viper, env string) (string, error) {
	if env == "" {
		return "", nil
	}
	value := GetString(v, env)
	if value == "" {
		return "", errors.NewConfigError("secrets", "environment variable "+env+" not set", nil)
	}
	return value, nil
}
