// internal/config/config_test.go
package config

import (
	"strings"
	"testing"
)

const validYAML = `
sites:
  - site: amazon
    domain: amazon.com
    keywords: ["baby bottle", "bib"]
  - site: walmart
    domain: walmart.com
    keywords: ["pacifier"]
    max_products_per_keyword: 5
max_products_per_keyword: 10
retries: 3
mongodb:
  connection_string: mongodb://localhost:27017
  database: shelfscout
verification_api:
  enabled: true
`

func TestLoadFromBytesValid(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if len(cfg.Sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(cfg.Sites))
	}
	if cfg.Sites[0].Site != "amazon" || cfg.Sites[0].Domain != "amazon.com" {
		t.Errorf("unexpected first site: %+v", cfg.Sites[0])
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d, want 3", cfg.Retries)
	}
	if cfg.MongoDB.Collection != "products" {
		t.Errorf("default collection = %q, want products", cfg.MongoDB.Collection)
	}
	if cfg.VerificationAPI.ListenAddress != ":3000" {
		t.Errorf("default verification listen address = %q, want :3000", cfg.VerificationAPI.ListenAddress)
	}
}

func TestEffectiveCap(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cap := cfg.Sites[0].EffectiveCap(cfg.MaxProductsPerKeyword); cap != 10 {
		t.Errorf("global cap = %d, want 10", cap)
	}
	if cap := cfg.Sites[1].EffectiveCap(cfg.MaxProductsPerKeyword); cap != 5 {
		t.Errorf("site override cap = %d, want 5", cap)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "zero retries",
			mutate:  func(s string) string { return strings.Replace(s, "retries: 3", "retries: 0", 1) },
			wantErr: "retries",
		},
		{
			name:    "zero cap",
			mutate:  func(s string) string { return strings.Replace(s, "max_products_per_keyword: 10", "max_products_per_keyword: 0", 1) },
			wantErr: "max_products_per_keyword",
		},
		{
			name:    "missing connection string",
			mutate:  func(s string) string { return strings.Replace(s, "connection_string: mongodb://localhost:27017", "connection_string: \"\"", 1) },
			wantErr: "connection_string",
		},
		{
			name:    "empty keyword",
			mutate:  func(s string) string { return strings.Replace(s, `"pacifier"`, `""`, 1) },
			wantErr: "keyword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.mutate(validYAML)))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadNonNumericRetries(t *testing.T) {
	bad := strings.Replace(validYAML, "retries: 3", "retries: lots", 1)
	if _, err := LoadFromBytes([]byte(bad)); err == nil {
		t.Fatal("expected YAML parse error for non-numeric retries")
	}
}

func TestEnsureSupportedSites(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(validYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if err := cfg.EnsureSupportedSites([]string{"amazon", "walmart", "firstcry"}); err != nil {
		t.Errorf("unexpected error for supported sites: %v", err)
	}
	if err := cfg.EnsureSupportedSites([]string{"amazon"}); err == nil {
		t.Error("expected error for unsupported site walmart")
	}
}

func TestEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("SHELFSCOUT_TEST_MONGO", "mongodb://db.internal:27017")

	yaml := strings.Replace(validYAML,
		"connection_string: mongodb://localhost:27017",
		"connection_string: ${SHELFSCOUT_TEST_MONGO}", 1)

	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.MongoDB.ConnectionString != "mongodb://db.internal:27017" {
		t.Errorf("expansion failed: %q", cfg.MongoDB.ConnectionString)
	}
}

func TestEnvironmentVariableDefault(t *testing.T) {
	yaml := strings.Replace(validYAML,
		"database: shelfscout",
		"database: ${SHELFSCOUT_UNSET_DB:fallback}", 1)

	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.MongoDB.Database != "fallback" {
		t.Errorf("default expansion failed: %q", cfg.MongoDB.Database)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/shelfscout.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
