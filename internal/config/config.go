// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// envVarPattern matches ${VAR} and ${VAR:default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([^}]*))?\}`)

// expandEnvironmentVariables substitutes ${VAR} references, honoring
// ${VAR:default} fallbacks.
func expandEnvironmentVariables(data string) string {
	return envVarPattern.ReplaceAllStringFunc(data, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return groups[2]
	})
}

func applyDefaults(config *Config) {
	if config.VerificationAPI.Enabled && config.VerificationAPI.ListenAddress == "" {
		config.VerificationAPI.ListenAddress = ":3000"
	}
	if config.Metrics.Enabled && config.Metrics.ListenAddress == "" {
		config.Metrics.ListenAddress = ":9090"
	}
	if config.MongoDB.Collection == "" {
		config.MongoDB.Collection = "products"
	}
}

// Validate checks the configuration for errors that must stop the run before
// any work begins.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return fmt.Errorf("at least one site must be configured")
	}

	for i, site := range c.Sites {
		if strings.TrimSpace(site.Site) == "" {
			return fmt.Errorf("site %d: site identifier cannot be empty", i)
		}
		if strings.TrimSpace(site.Domain) == "" {
			return fmt.Errorf("site %d (%s): domain cannot be empty", i, site.Site)
		}
		if len(site.Keywords) == 0 {
			return fmt.Errorf("site %d (%s): at least one keyword is required", i, site.Site)
		}
		for j, keyword := range site.Keywords {
			if strings.TrimSpace(keyword) == "" {
				return fmt.Errorf("site %d (%s): keyword %d is empty", i, site.Site, j)
			}
		}
		if site.MaxProductsPerKeyword < 0 {
			return fmt.Errorf("site %d (%s): max_products_per_keyword cannot be negative", i, site.Site)
		}
	}

	if c.MaxProductsPerKeyword < 1 {
		return fmt.Errorf("max_products_per_keyword must be at least 1, got %d", c.MaxProductsPerKeyword)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be at least 1, got %d", c.Retries)
	}

	if c.MongoDB.ConnectionString == "" {
		return fmt.Errorf("mongodb.connection_string is required")
	}
	if c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb.database is required")
	}

	if c.LogLevel != "" {
		switch strings.ToLower(c.LogLevel) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("unknown log_level: %q", c.LogLevel)
		}
	}

	return nil
}

// EnsureSupportedSites verifies every configured site identifier is known to
// the adapter registry.
func (c *Config) EnsureSupportedSites(supported []string) error {
	known := make(map[string]bool, len(supported))
	for _, s := range supported {
		known[s] = true
	}
	for _, site := range c.Sites {
		if !known[strings.ToLower(site.Site)] {
			return fmt.Errorf("unsupported site %q: supported sites are %s",
				site.Site, strings.Join(supported, ", "))
		}
	}
	return nil
}
