package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper points Viper at configFile, or at the first paapi-gate.yaml or
// paapi-gate.yml found in the search path, and enables PAAPI_GATE_*
// environment overrides. Only explicit YAML extensions are searched so the
// paapi-gate binary in the working directory is never picked up.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No search paths: ReadInConfig reports ConfigFileNotFoundError.
		viper.SetConfigName("paapi-gate")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: PAAPI_GATE_CREDENTIALS_ACCESS_KEY
	viper.SetEnvPrefix("PAAPI_GATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile looks in the working directory, ~/.paapi-gate and the
// system config directory.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".paapi-gate"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "paapi-gate"))
		}
	} else {
		paths = append(paths, "/etc/paapi-gate")
	}
	return findConfigFileInPaths(paths)
}

// findConfigFileInPaths returns the first paapi-gate.yaml or .yml under
// paths, or "".
func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "paapi-gate"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys makes nested keys visible to Unmarshal when they are only
// set in the environment, e.g. PAAPI_GATE_SERVER_HTTP_ADDR.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("server.http_addr")
	_ = viper.BindEnv("server.log_level")
	_ = viper.BindEnv("server.rate_limit.enabled")
	_ = viper.BindEnv("server.rate_limit.per_minute")
	_ = viper.BindEnv("server.rate_limit.burst")
	_ = viper.BindEnv("server.rate_limit.cleanup_interval")
	_ = viper.BindEnv("server.rate_limit.max_ttl")

	// Credentials are the usual thing to keep out of the file.
	_ = viper.BindEnv("credentials.access_key")
	_ = viper.BindEnv("credentials.secret_key")
	_ = viper.BindEnv("credentials.partner_tag")
	_ = viper.BindEnv("credentials.marketplace")

	_ = viper.BindEnv("paapi.endpoint")
	_ = viper.BindEnv("paapi.timeout")
	_ = viper.BindEnv("paapi.rate_limit")
	_ = viper.BindEnv("paapi.burst")
	_ = viper.BindEnv("paapi.catalog_file")

	// auth.api_keys is a list and only comes from the file.

	_ = viper.BindEnv("telemetry.enabled")
	_ = viper.BindEnv("telemetry.service_name")

	_ = viper.BindEnv("dev_mode")
}

// LoadConfig returns the validated configuration with defaults and dev
// defaults applied.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}

	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw applies plain defaults only, so a --dev flag can still flip
// DevMode before SetDevDefaults and Validate run.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed is the loaded file path, or "" when running from the
// environment alone.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
