package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/firmvault/pkg/configs"
)

func TestInitConfigDefaults(t *testing.T) {
	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("init with defaults: %v", err)
	}

	cfg := configs.GetConfig()
	if cfg.Server.Port <= 0 {
		t.Errorf("port = %d", cfg.Server.Port)
	}

	if cfg.Auth.JWTSecret == "" {
		t.Error("jwt secret should have a default")
	}
}

func TestInitConfigRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()

	cfgFile := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("server:\n  port: 70000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := configs.InitConfig(dir); err == nil {
		t.Fatal("out-of-range port should fail validation")
	}
}

func TestInitConfigRejectsEmptyRequired(t *testing.T) {
	dir := t.TempDir()

	cfgFile := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgFile, []byte("db:\n  path: \"\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := configs.InitConfig(dir); err == nil {
		t.Fatal("empty db path should fail validation")
	}
}
