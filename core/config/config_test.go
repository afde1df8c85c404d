package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
telegram:
  token: "123:abc"
  run_mode: "polling"
database:
  host: "localhost"
  port: "5432"
  user: "scribe"
  password: "secret"
  name: "scribebot"
logging:
  level: "debug"
  profile: "dev"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode alias not normalized: %q", cfg.Telegram.RunMode)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Fatalf("sslmode default missing: %q", cfg.Database.SSLMode)
	}
	if cfg.Database.MaxConnections != 4 {
		t.Fatalf("max connections default missing: %d", cfg.Database.MaxConnections)
	}
}

func TestLoadMissingToken(t *testing.T) {
	if _, err := Load(writeConfig(t, "telegram:\n  run_mode: longpoll\n")); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for webhook mode without url")
	}
}

func TestNormalizeRejectsUnknownRunMode(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Telegram.RunMode = "carrier-pigeon"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown run mode")
	}
}
