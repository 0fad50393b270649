package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadMissingFile(t *testing.T) {
	v := viper.New()
	v.SetDefault("hub", "localhost:8445")

	if err := Load(v, filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if got := v.GetString("hub"); got != "localhost:8445" {
		t.Errorf("hub = %q, want default", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshpair.yaml")
	if err := os.WriteFile(path, []byte("hub: 10.0.0.2:8445\nrequest-timeout: 5s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := Load(v, path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := v.GetString("hub"); got != "10.0.0.2:8445" {
		t.Errorf("hub = %q, want 10.0.0.2:8445", got)
	}
	if got := v.GetDuration("request-timeout"); got != 5*time.Second {
		t.Errorf("request-timeout = %v, want 5s", got)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshpair.yaml")
	if err := os.WriteFile(path, []byte("hub: [unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := Load(viper.New(), path); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MESHPAIR_LOG_LEVEL", "debug")

	v := viper.New()
	v.SetDefault("log-level", "warn")
	if err := Load(v, ""); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := v.GetString("log-level"); got != "debug" {
		t.Errorf("log-level = %q, want debug", got)
	}
}
