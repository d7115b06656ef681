package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "lensforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "LENSFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "LENSFORGE_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "LENSFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "LENSFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "LENSFORGE_LOG_ASYNC")
	setInt(&cfg.Logging.AsyncBuffer, "LENSFORGE_LOG_ASYNC_BUFFER")
	setString(&cfg.Cache.Backend, "LENSFORGE_CACHE_BACKEND")
	setString(&cfg.Cache.Dir, "LENSFORGE_CACHE_DIR")
	setDuration(&cfg.Cache.TTL, "LENSFORGE_CACHE_TTL")
	setInt64(&cfg.Cache.MaxEntries, "LENSFORGE_CACHE_MAX_ENTRIES")
	setString(&cfg.Provider.ID, "LENSFORGE_PROVIDER")
	setString(&cfg.Provider.Model, "LENSFORGE_MODEL")
	setString(&cfg.Provider.APIKey, "LENSFORGE_API_KEY")
	setString(&cfg.Provider.BaseURL, "LENSFORGE_PROVIDER_BASE_URL")
	setDuration(&cfg.Provider.Timeout, "LENSFORGE_PROVIDER_TIMEOUT")
	setInt(&cfg.Provider.MaxTokens, "LENSFORGE_PROVIDER_MAX_TOKENS")
	setFloat(&cfg.Provider.Temperature, "LENSFORGE_PROVIDER_TEMPERATURE")
	setInt(&cfg.Engine.MaxConcurrent, "LENSFORGE_MAX_CONCURRENT")
	setDuration(&cfg.Engine.CallTimeout, "LENSFORGE_CALL_TIMEOUT")
	setInt(&cfg.Breaker.MaxFailures, "LENSFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "LENSFORGE_BREAKER_TIMEOUT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Cache.Backend {
	case "memory", "file", "tiered":
	default:
		return fmt.Errorf("cache.backend %q must be one of memory, file, tiered", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend != "memory" && cfg.Cache.Dir == "" {
		return errors.New("cache.dir is required for file-backed caches")
	}
	if cfg.Provider.ID == "" {
		return errors.New("provider.id is required")
	}
	if cfg.Provider.Temperature < 0 || cfg.Provider.Temperature > 2 {
		return errors.New("provider.temperature must be between 0 and 2")
	}
	if cfg.Engine.MaxConcurrent < 1 {
		return errors.New("engine.max_concurrent must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
