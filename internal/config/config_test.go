package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: dev
  expire_hours: 24
`)
	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q", cfg.Server.Port)
	}
	if cfg.Certificate.DefaultExpirationDays != 365 {
		t.Errorf("default expiration = %d", cfg.Certificate.DefaultExpirationDays)
	}
	if cfg.Evaluation.QuestionCacheTTL() != 10*time.Minute {
		t.Errorf("question cache ttl = %v", cfg.Evaluation.QuestionCacheTTL())
	}
	if cfg.JWT.ExpireTime != 24*time.Hour {
		t.Errorf("jwt expire = %v", cfg.JWT.ExpireTime)
	}
	if cfg.Events.Exchange != "learnhub.events" {
		t.Errorf("events exchange = %q", cfg.Events.Exchange)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
jwt:
  secret: from-file
certificate:
  default_expiration_days: 90
  auto_issue: true
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.JWT.Secret != "from-env" || cfg.Server.Port != "9090" {
		t.Errorf("env not applied: secret=%q port=%q", cfg.JWT.Secret, cfg.Server.Port)
	}
	if cfg.Certificate.DefaultExpirationDays != 90 || !cfg.Certificate.AutoIssue {
		t.Errorf("certificate section not loaded: %+v", cfg.Certificate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "short secret in release",
			cfg: Config{
				Server:      ServerConfig{Mode: "release"},
				JWT:         JWTConfig{Secret: "short"},
				Certificate: CertificateConfig{DefaultExpirationDays: 365},
			},
			wantErr: "JWT secret",
		},
		{
			name: "non-positive expiration",
			cfg: Config{
				Server:      ServerConfig{Mode: "debug"},
				Certificate: CertificateConfig{DefaultExpirationDays: 0},
			},
			wantErr: "default_expiration_days",
		},
		{
			name: "events without url",
			cfg: Config{
				Server:      ServerConfig{Mode: "debug"},
				Certificate: CertificateConfig{DefaultExpirationDays: 365},
				Events:      EventsConfig{Enabled: true},
			},
			wantErr: "events.url",
		},
		{
			name: "valid release",
			cfg: Config{
				Server:      ServerConfig{Mode: "release"},
				JWT:         JWTConfig{Secret: strings.Repeat("x", 32)},
				Certificate: CertificateConfig{DefaultExpirationDays: 365},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
