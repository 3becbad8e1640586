// Package config provides lookups over viper configuration that fall back to
// the process environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/FursAndrey/staffsync/pkg/constants"
)

// EnvKey returns the environment variable name for a config key.
func EnvKey(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return constants.EnvPrefix + "_" + strings.ToUpper(r.Replace(key))
}

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	// Check OS env directly first
	osValue := os.Getenv(EnvKey(key))
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// GetStringDefault returns GetString(key), or defaultValue when unset.
func GetStringDefault(key, defaultValue string) string {
	if v := GetString(key); v != "" {
		return v
	}
	return defaultValue
}

// GetBool returns a boolean from Viper, falling back to the environment.
// Unparseable environment values read as false.
func GetBool(key string) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	v, err := strconv.ParseBool(os.Getenv(EnvKey(key)))
	return err == nil && v
}
