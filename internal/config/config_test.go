//go:build !integration

// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
database:
  url: postgres://localhost/db
redis:
  url: localhost:6379
auth:
  jwt_secret: secret
yookassa:
  shop_id: shop
  secret_key: sk
  return_url: https://example.com/return
`

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults to a minimal config", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, minimalConfig), false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.HTTP.Port != 8080 {
			t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults %+v", cfg.Log)
		}
		if cfg.Auth.AccessTTL != 15*time.Minute {
			t.Errorf("expected default access ttl, got %s", cfg.Auth.AccessTTL)
		}
		if cfg.YooKassa.APIURL != "https://api.yookassa.ru/v3" {
			t.Errorf("expected default api url, got %q", cfg.YooKassa.APIURL)
		}
		if cfg.Jobs.ReconcileInterval != time.Minute || cfg.Jobs.ReconcileBatch != 100 {
			t.Errorf("unexpected job defaults %+v", cfg.Jobs)
		}
	})

	t.Run("should reject missing credentials", func(t *testing.T) {
		cases := []struct {
			name string
			yaml string
		}{
			{"no database", `
redis: {url: localhost}
auth: {jwt_secret: s}
yookassa: {shop_id: a, secret_key: b, return_url: c}
`},
			{"no jwt secret", `
database: {url: postgres://localhost/db}
redis: {url: localhost}
yookassa: {shop_id: a, secret_key: b, return_url: c}
`},
			{"no yookassa shop", `
database: {url: postgres://localhost/db}
redis: {url: localhost}
auth: {jwt_secret: s}
yookassa: {secret_key: b, return_url: c}
`},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				if _, err := LoadConfig(writeConfig(t, c.yaml), false); err == nil {
					t.Fatal("expected a validation error")
				}
			})
		}
	})

	t.Run("should clamp an out-of-range bcrypt cost", func(t *testing.T) {
		yaml := `
database: {url: postgres://localhost/db}
redis: {url: localhost:6379}
auth: {jwt_secret: secret, bcrypt_cost: 99}
yookassa: {shop_id: shop, secret_key: sk, return_url: https://example.com/return}
`
		cfg, err := LoadConfig(writeConfig(t, yaml), false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Auth.BcryptCost != 12 {
			t.Errorf("expected clamped cost 12, got %d", cfg.Auth.BcryptCost)
		}
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		if _, err := LoadConfig("/does/not/exist.yaml", false); err == nil {
			t.Fatal("expected an error")
		}
	})
}
