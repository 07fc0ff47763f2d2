package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Canonical: CanonicalConfig{DSN: "postgres://localhost:5432/market"},
		Engine:    EngineConfig{Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingCanonicalDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Canonical.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing canonical dsn")
	}
}

func TestValidate_MissingEngineAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing engine addrs")
	}
}

func TestValidate_NegativeSyncInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.IntervalSec = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative sync interval")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Engine.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Engine.ReadinessTimeout)
	}
	if cfg.Index.Name != "idx:listings" {
		t.Errorf("expected Name='idx:listings', got %q", cfg.Index.Name)
	}
	if cfg.Index.KeyPrefix != "listing:" {
		t.Errorf("expected KeyPrefix='listing:', got %q", cfg.Index.KeyPrefix)
	}
	if cfg.Index.PageSize != 20 {
		t.Errorf("expected PageSize=20, got %d", cfg.Index.PageSize)
	}
	if cfg.Sync.LeaseSec != 600 {
		t.Errorf("expected LeaseSec=600, got %d", cfg.Sync.LeaseSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Engine: EngineConfig{ReadinessTimeout: 15},
		Index:  IndexConfig{Name: "idx:custom", KeyPrefix: "custom:", PageSize: 50},
		Sync:   SyncConfig{IntervalSec: 120, LeaseSec: 300},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Index.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Index.KeyPrefix)
	}
	if cfg.Sync.LeaseSec != 300 {
		t.Errorf("expected LeaseSec=300, got %d", cfg.Sync.LeaseSec)
	}
	if cfg.Index.PageSize != 50 {
		t.Errorf("expected PageSize=50, got %d", cfg.Index.PageSize)
	}
}
